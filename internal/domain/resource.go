package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResourceType discriminates the two resource variants.
type ResourceType string

const (
	ResourceTypeYoutube ResourceType = "youtube"
	ResourceTypeFile    ResourceType = "file"
)

// ResourceCategory is the storage path segment derived from the uploaded
// file's extension or MIME type.
type ResourceCategory string

const (
	CategoryPDF    ResourceCategory = "pdf"
	CategoryPPT    ResourceCategory = "ppt"
	CategoryDocs   ResourceCategory = "docs"
	CategorySheets ResourceCategory = "sheets"
	CategoryVideo  ResourceCategory = "video"
)

// StorageProviderS3 marks file resources backed by the S3-compatible bucket.
const StorageProviderS3 = "s3"

// FileDetails holds the file-variant fields. It is embedded as a nested
// document so youtube resources carry none of the storage fields.
type FileDetails struct {
	StorageProvider  string           `bson:"storageProvider" json:"storageProvider"`
	Bucket           string           `bson:"bucket" json:"bucket"`
	ObjectKey        string           `bson:"objectKey" json:"objectKey"`
	URI              string           `bson:"uri" json:"uri"`
	PublicURL        string           `bson:"publicUrl,omitempty" json:"publicUrl,omitempty"` // empty when the bucket is private
	OriginalFileName string           `bson:"originalFileName" json:"originalFileName"`
	MimeType         string           `bson:"mimeType" json:"mimeType"`
	SizeBytes        int64            `bson:"sizeBytes" json:"sizeBytes"`
	FileExt          string           `bson:"fileExt" json:"fileExt"`
	Category         ResourceCategory `bson:"category" json:"category"`
}

// Resource is one piece of session content: either a YouTube link or an
// uploaded file. Exactly one of YoutubeURL / File is populated, keyed by Type.
type Resource struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        ResourceType       `bson:"type" json:"type"`
	YoutubeURL  string             `bson:"youtubeUrl,omitempty" json:"youtubeUrl,omitempty"`
	File        *FileDetails       `bson:"file,omitempty" json:"file,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsFile reports whether the resource is a stored file with an object key.
func (r *Resource) IsFile() bool {
	return r.Type == ResourceTypeFile && r.File != nil && r.File.ObjectKey != ""
}
