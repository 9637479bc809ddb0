package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Post is a social feed entry.
type Post struct {
	Base
	UserID           string                      `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	Content          string                      `gorm:"not null" json:"content" validate:"required"`
	ImageURL         string                      `gorm:"column:image_url" json:"imageUrl,omitempty" validate:"omitempty,url"`
	LikesCount       *int                        `gorm:"default:0" json:"likesCount"`
	CommentsCount    *int                        `gorm:"default:0" json:"commentsCount"`
	SharesCount      *int                        `gorm:"default:0" json:"sharesCount"`
	Tags             datatypes.JSONSlice[string] `json:"tags,omitempty"`
	MentionedCryptos datatypes.JSONSlice[string] `json:"mentionedCryptos,omitempty"`
	IsPublic         *bool                       `gorm:"default:true" json:"isPublic"`
}

func (Post) TableName() string {
	return "posts"
}

type Comment struct {
	Base
	PostID     string `gorm:"type:varchar(36);not null;index" json:"postId" validate:"required"`
	UserID     string `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	Content    string `gorm:"not null" json:"content" validate:"required"`
	LikesCount *int   `gorm:"default:0" json:"likesCount"`
}

func (Comment) TableName() string {
	return "comments"
}

// Like targets either a post or a comment, never both.
type Like struct {
	Base
	UserID    string `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	PostID    string `gorm:"type:varchar(36);index" json:"postId,omitempty" validate:"required_without=CommentID,excluded_with=CommentID"`
	CommentID string `gorm:"type:varchar(36);index" json:"commentId,omitempty" validate:"required_without=PostID,excluded_with=PostID"`
}

func (Like) TableName() string {
	return "likes"
}

// Article is long-form user content. The body lives in object storage under ContentKey.
type Article struct {
	Base
	AuthorID      string                      `gorm:"type:varchar(64);not null;index" json:"authorId" validate:"required"`
	AuthorName    string                      `gorm:"not null" json:"authorName" validate:"required"`
	Title         string                      `gorm:"not null" json:"title" validate:"required"`
	Content       string                      `json:"content,omitempty"`
	Summary       string                      `json:"summary,omitempty"`
	CoverImageURL string                      `gorm:"column:cover_image_url" json:"coverImageUrl,omitempty" validate:"omitempty,url"`
	ContentKey    string                      `gorm:"not null" json:"contentKey" validate:"required"`
	Tags          datatypes.JSONSlice[string] `json:"tags,omitempty"`
	Images        datatypes.JSONSlice[string] `json:"images,omitempty"`
	Status        ArticleStatus               `gorm:"type:varchar(16)" json:"status,omitempty" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	LikesCount    *int                        `gorm:"default:0" json:"likesCount"`
	CommentsCount *int                        `gorm:"default:0" json:"commentsCount"`
	ViewsCount    *int                        `gorm:"default:0" json:"viewsCount"`
	IsPublic      *bool                       `gorm:"default:true" json:"isPublic"`
	PublishedAt   *time.Time                  `json:"publishedAt,omitempty"`
}

func (Article) TableName() string {
	return "articles"
}
