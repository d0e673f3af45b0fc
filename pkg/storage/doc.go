// Package storage holds the filesystem primitives shared by the local cache,
// the cookie jar and the metadata sidecars.
//
// Writes go through WriteFileAtomic: data lands in "<path>.tmp" and is renamed
// over the target only after the whole body was copied, so an interrupted
// download never leaves a file that Find would report as present.
//
//	covers, err := storage.NewDir("./dump/covers")
//	if ok, _ := covers.Has(item.ID); !ok {
//	    _, err = covers.Save(item.ID, ".jpg", body)
//	}
package storage
