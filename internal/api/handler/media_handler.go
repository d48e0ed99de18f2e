package handler

import (
	"murmur/internal/api/dto"
	"murmur/internal/model"
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/minio"
	"murmur/internal/pkg/response"
	"murmur/internal/pkg/util"
	"murmur/internal/service"
	"fmt"
	"io"
	log "log/slog"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	userSvc service.UserService
}

func NewMediaHandler(userSvc service.UserService) *MediaHandler {
	return &MediaHandler{userSvc: userSvc}
}

// Upload 会话附件上传
// 返回公开地址，消息体里引用；图片额外生成缩略图
func (s *MediaHandler) Upload(c *gin.Context) {
	userID := c.GetUint64("user_id")

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	// 以文件头嗅探为准，不信任客户端声明的类型
	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	contentKind := contentKindOf(contentType)

	ext := path.Ext(file.Filename)
	objectName := fmt.Sprintf("%d/%d%s", userID, time.Now().UnixNano(), ext)

	fileKey, err := minio.UploadFile(c.Request.Context(), objectName, reader, file.Size, contentType)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "MinIO upload failed", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	res := &dto.MediaUploadRes{
		FileURL:     minio.GetPublicURL(fileKey),
		ContentType: contentKind,
	}

	if contentKind == model.ContentTypeImage {
		if thumbURL := s.uploadThumbnail(c, reader, objectName); thumbURL != "" {
			res.ThumbnailURL = &thumbURL
		}
	}

	response.Success(c, res)
}

// UploadAvatar 头像上传，仅接受图片
func (s *MediaHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetUint64("user_id")

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if !strings.HasPrefix(contentType, consts.MimePrefixImage) {
		response.Error(c, service.ErrFileNotSupported)
		return
	}

	ext := path.Ext(file.Filename)
	objectName := fmt.Sprintf("avatars/%d/%d%s", userID, time.Now().UnixNano(), ext)

	fileKey, err := minio.UploadFile(c.Request.Context(), objectName, reader, file.Size, contentType)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "MinIO upload failed", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	avatarURL := minio.GetPublicURL(fileKey)
	if err = s.userSvc.UpdateAvatar(c.Request.Context(), userID, avatarURL); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, map[string]string{"avatar_url": avatarURL})
}

// uploadThumbnail 失败只降级，不影响原图上传结果
func (s *MediaHandler) uploadThumbnail(c *gin.Context, reader io.ReadSeeker, objectName string) string {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return ""
	}
	thumb, err := util.MakeThumbnail(reader)
	if err != nil {
		log.WarnContext(c.Request.Context(), "thumbnail generation failed", "object", objectName, "err", err)
		return ""
	}

	thumbName := strings.TrimSuffix(objectName, path.Ext(objectName)) + "_thumb.jpg"
	thumbKey, err := minio.UploadFile(c.Request.Context(), thumbName, thumb, int64(thumb.Len()), "image/jpeg")
	if err != nil {
		log.WarnContext(c.Request.Context(), "thumbnail upload failed", "object", thumbName, "err", err)
		return ""
	}
	return minio.GetPublicURL(thumbKey)
}

// contentKindOf 把 MIME 映射到消息内容类型
func contentKindOf(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, consts.MimePrefixImage):
		return model.ContentTypeImage
	case strings.HasPrefix(contentType, consts.MimePrefixVideo):
		return model.ContentTypeVideo
	case strings.HasPrefix(contentType, consts.MimePrefixAudio):
		return model.ContentTypeAudio
	default:
		return model.ContentTypeFile
	}
}
