package util

import (
	"crypto/md5"
	"encoding/json"

	"github.com/google/uuid"
)

// JobMeta identifies a print job as handed to a filter.
type JobMeta struct {
	ID      string `json:"id"`
	User    string `json:"user"`
	Title   string `json:"title"`
	Options string `json:"options,omitempty"`
}

// HashUUID derives a stable uuid from the JSON form of value, empty if it
// can not be marshaled.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	hash := md5.Sum(raw)
	id, err := uuid.FromBytes(hash[:])
	if err != nil {
		return ""
	}
	return id.String()
}

// JobUUID is the same for every run of a job. Jobs without an id get a
// random one.
func JobUUID(meta JobMeta) string {
	if meta.ID == "" {
		return uuid.NewString()
	}
	return HashUUID(meta)
}
