// Package retry wraps calls that may fail transiently in a bounded
// exponential backoff.
//
// Only errors accepted by the policy's RetryIf predicate are retried; by
// default that is the transient_remote class from pkg/errors. Schema,
// duplicate-record and validation failures return immediately. When every
// attempt fails, Do returns the error from the last attempt as-is so
// callers can still match it with errors.Is and errors.As.
//
//	policy := retry.FromConfig(cfg.Retry, log)
//	page, err := retry.DoValue(ctx, policy, func(ctx context.Context) (*notionapi.Page, error) {
//		return pages.Create(ctx, req)
//	})
package retry
