package dto

// MediaUploadRes 附件上传响应
type MediaUploadRes struct {
	FileURL      string  `json:"file_url"`
	ThumbnailURL *string `json:"thumbnail_url"`
	ContentType  string  `json:"content_type"` // 归一化后的消息内容类型
}
