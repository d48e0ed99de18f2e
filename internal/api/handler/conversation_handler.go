package handler

import (
	"murmur/internal/api/dto"
	"murmur/internal/pkg/response"
	"murmur/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	convSvc service.ConversationService
}

func NewConversationHandler(convSvc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		convSvc: convSvc,
	}
}

func (s *ConversationHandler) List(c *gin.Context) {
	userID := c.GetUint64("user_id")
	list, err := s.convSvc.ListConversations(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func (s *ConversationHandler) Create(c *gin.Context) {
	userID := c.GetUint64("user_id")
	var req dto.CreateConversationReq
	err := c.ShouldBind(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := s.convSvc.CreateConversation(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ConversationHandler) Participants(c *gin.Context) {
	userID := c.GetUint64("user_id")
	convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	list, err := s.convSvc.ListParticipants(c.Request.Context(), userID, convID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
