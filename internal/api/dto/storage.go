package dto

import "time"

// ObjectResponse describes a stored object.
type ObjectResponse struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

// ObjectListResponse is the result of listing a prefix.
type ObjectListResponse struct {
	Bucket  string           `json:"bucket"`
	Prefix  string           `json:"prefix"`
	Objects []ObjectResponse `json:"objects"`
}
