package service

import (
	"murmur/internal/api/dto"
	"murmur/internal/model"
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/linkpreview"
	"murmur/internal/pkg/minio"
	"murmur/internal/pkg/util"
	"murmur/internal/repository"
	"context"
	"errors"
	"strings"
	"time"
	log "log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

var validContentTypes = map[string]struct{}{
	model.ContentTypeText:  {},
	model.ContentTypeImage: {},
	model.ContentTypeVideo: {},
	model.ContentTypeAudio: {},
	model.ContentTypeFile:  {},
}

// MessageService 消息域服务接口定义
type MessageService interface {
	ListMessages(ctx context.Context, userID uint64, convID uint64) ([]*dto.MessageDTO, error)
	SendMessage(ctx context.Context, userID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	DeleteMessage(ctx context.Context, userID uint64, msgID uint64) error
	ToggleReaction(ctx context.Context, userID uint64, req *dto.ToggleReactionReq) error
}

type messageServiceImpl struct {
	msgRepo   repository.MessageRepo
	convRepo  repository.ConversationRepo
	publisher EventPublisher
	preview   linkpreview.Fetcher
}

func NewMessageService(
	msgRepo repository.MessageRepo,
	convRepo repository.ConversationRepo,
	publisher EventPublisher,
	preview linkpreview.Fetcher,
) MessageService {
	return &messageServiceImpl{
		msgRepo:   msgRepo,
		convRepo:  convRepo,
		publisher: publisher,
		preview:   preview,
	}
}

// ListMessages 会话内消息列表，按发送时间正序，要求调用方是成员
func (s *messageServiceImpl) ListMessages(ctx context.Context, userID uint64, convID uint64) ([]*dto.MessageDTO, error) {
	if userID == 0 {
		return nil, UnauthorizedError
	}

	isMember, err := s.convRepo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotParticipant
	}

	msgs, err := s.msgRepo.ListByConversation(ctx, convID)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageDTO, 0, len(msgs))
	for _, msg := range msgs {
		res = append(res, toMessageDTO(msg))
	}
	return res, nil
}

// SendMessage 发消息
// 校验全部放在任何 I/O 之前，空文本消息在这里拦下而不是打到数据库
func (s *messageServiceImpl) SendMessage(ctx context.Context, userID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	if userID == 0 {
		return nil, UnauthorizedError
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = model.ContentTypeText
	}
	if _, ok := validContentTypes[contentType]; !ok {
		return nil, ErrContentType
	}

	content := strings.TrimSpace(req.Content)
	if contentType == model.ContentTypeText && content == "" {
		return nil, ErrMessageEmpty
	}
	if contentType != model.ContentTypeText && (req.FileURL == nil || *req.FileURL == "") {
		return nil, ErrParamInvalid
	}

	isMember, err := s.convRepo.IsParticipant(ctx, req.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotParticipant
	}

	if req.RepliedToID != nil {
		replied, err := s.msgRepo.GetMessage(ctx, *req.RepliedToID)
		if err != nil {
			return nil, err
		}
		// 只允许回复同一会话的消息
		if replied == nil || replied.ConversationID != req.ConversationID {
			return nil, ErrReplyCrossConv
		}
	}

	msg := &model.Message{
		ConversationID: req.ConversationID,
		SenderID:       util.PtrUint64(userID),
		ContentType:    contentType,
		FileURL:        req.FileURL,
		ThumbnailURL:   req.ThumbnailURL,
		RepliedToID:    req.RepliedToID,
		IsForwarded:    req.IsForwarded,
	}
	if content != "" {
		msg.Content = &content
	}
	if req.DisappearAfterSec > 0 {
		at := time.Now().Add(time.Duration(req.DisappearAfterSec) * time.Second)
		msg.DisappearsAt = &at
	}

	if err = s.msgRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.publishMessageChange(ctx, req.ConversationID, consts.EventInsert)

	// 文本里带链接时异步补全预览，失败只影响该消息的预览字段
	// preview 为 nil 表示 link_preview.enable 关闭
	if contentType == model.ContentTypeText && s.preview != nil {
		if link := util.ExtractFirstURL(content); link != "" {
			go s.enrichLinkPreview(context.WithoutCancel(ctx), msg.ID, msg.ConversationID, link)
		}
	}

	return toMessageDTO(msg), nil
}

// DeleteMessage 仅发送者本人可删除
func (s *messageServiceImpl) DeleteMessage(ctx context.Context, userID uint64, msgID uint64) error {
	if userID == 0 {
		return UnauthorizedError
	}

	msg, err := s.msgRepo.GetMessage(ctx, msgID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID == nil || *msg.SenderID != userID {
		return ErrNotParticipant
	}

	if err = s.msgRepo.DeleteMessage(ctx, msgID); err != nil {
		return err
	}
	cleanupAttachments(ctx, msg)

	s.publishMessageChange(ctx, msg.ConversationID, consts.EventDelete)
	return nil
}

// cleanupAttachments 尽力清理已删除消息的附件对象，失败只记日志
func cleanupAttachments(ctx context.Context, msg *model.Message) {
	for _, u := range []*string{msg.FileURL, msg.ThumbnailURL} {
		if u == nil || *u == "" {
			continue
		}
		name := minio.ObjectNameFromURL(*u)
		if name == "" {
			continue
		}
		if err := minio.DeleteFile(ctx, name); err != nil {
			log.WarnContext(ctx, "Failed to delete attachment object", "object", name, "err", err)
		}
	}
}

// ToggleReaction 表情回应开关
// 依赖 (message_id, user_id, reaction) 唯一索引：插入冲突即视为已存在，转为删除
func (s *messageServiceImpl) ToggleReaction(ctx context.Context, userID uint64, req *dto.ToggleReactionReq) error {
	if userID == 0 {
		return UnauthorizedError
	}

	msg, err := s.msgRepo.GetMessage(ctx, req.MessageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	isMember, err := s.convRepo.IsParticipant(ctx, msg.ConversationID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotParticipant
	}

	reaction := &model.MessageReaction{
		MessageID: req.MessageID,
		UserID:    userID,
		Reaction:  req.Reaction,
	}
	err = s.msgRepo.AddReaction(ctx, reaction)
	if err != nil {
		if !isDuplicateError(err) {
			return err
		}
		if err = s.msgRepo.DeleteReaction(ctx, req.MessageID, userID, req.Reaction); err != nil {
			return err
		}
		s.publishChange(ctx, consts.TableReactions, msg.ConversationID, consts.EventDelete)
		return nil
	}

	s.publishChange(ctx, consts.TableReactions, msg.ConversationID, consts.EventInsert)
	return nil
}

func (s *messageServiceImpl) enrichLinkPreview(ctx context.Context, msgID, convID uint64, link string) {
	preview, err := s.preview.Fetch(ctx, link)
	if err != nil {
		log.WarnContext(ctx, "Failed to fetch link preview", "url", link, "err", err)
		return
	}
	if preview == nil || preview.Title == "" {
		return
	}
	if err = s.msgRepo.SetLinkPreview(ctx, msgID, preview.URL, preview.Title, preview.Image); err != nil {
		log.ErrorContext(ctx, "Failed to save link preview", "msgID", msgID, "err", err)
		return
	}
	s.publishMessageChange(ctx, convID, consts.EventUpdate)
}

// publishMessageChange 推送消息集合变更，失败只记日志不影响主流程
func (s *messageServiceImpl) publishMessageChange(ctx context.Context, convID uint64, event string) {
	s.publishChange(ctx, consts.TableMessages, convID, event)
}

func (s *messageServiceImpl) publishChange(ctx context.Context, table string, convID uint64, event string) {
	e := &dto.ChangeEventDTO{
		Table:          table,
		Event:          event,
		ConversationID: convID,
	}
	if err := s.publisher.PublishChange(ctx, e); err != nil {
		log.ErrorContext(ctx, "Failed to publish change", "table", table, "convID", convID, "err", err)
	}
}

// isDuplicateError 同时识别驱动层 1062 和 gorm 翻译后的错误
func isDuplicateError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func toMessageDTO(msg *model.Message) *dto.MessageDTO {
	item := &dto.MessageDTO{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		ContentType:    msg.ContentType,
		FileURL:        msg.FileURL,
		ThumbnailURL:   msg.ThumbnailURL,
		RepliedToID:    msg.RepliedToID,
		IsForwarded:    msg.IsForwarded,
		DisappearsAt:   msg.DisappearsAt,
		CreatedAt:      msg.CreatedAt,
		UpdatedAt:      msg.UpdatedAt,
	}
	if msg.PreviewURL != nil && msg.PreviewTitle != nil {
		item.LinkPreview = &dto.LinkPreviewDTO{
			URL:   *msg.PreviewURL,
			Title: *msg.PreviewTitle,
		}
		if msg.PreviewImage != nil {
			item.LinkPreview.Image = *msg.PreviewImage
		}
	}
	if msg.Sender != nil {
		item.Sender = toUserDTO(msg.Sender)
	}
	if msg.RepliedTo != nil {
		item.RepliedTo = &dto.RepliedToDTO{
			ID:          msg.RepliedTo.ID,
			Content:     msg.RepliedTo.Content,
			ContentType: msg.RepliedTo.ContentType,
			SenderID:    msg.RepliedTo.SenderID,
		}
		if msg.RepliedTo.Sender != nil {
			item.RepliedTo.Sender = toUserDTO(msg.RepliedTo.Sender)
		}
	}
	item.Reactions = make([]*dto.ReactionDTO, 0, len(msg.Reactions))
	for i := range msg.Reactions {
		r := &dto.ReactionDTO{}
		_ = copier.Copy(r, &msg.Reactions[i])
		item.Reactions = append(item.Reactions, r)
	}
	return item
}

func toUserDTO(user *model.User) *dto.UserDTO {
	u := &dto.UserDTO{}
	_ = copier.Copy(u, user)
	return u
}
