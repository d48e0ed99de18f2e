package handler

import (
	"murmur/internal/api/dto"
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/redis"
	"murmur/internal/pkg/response"
	"murmur/internal/pkg/security"
	"murmur/internal/repository"
	"murmur/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	convRepo repository.ConversationRepo
}

func NewWsHandler(convRepo repository.ConversationRepo) *WsHandler {
	return &WsHandler{convRepo: convRepo}
}

// Connect 建立推送连接
// 订阅用户频道和已加入会话的频道；客户端进入新会话后发 subscribe 控制帧，
// 不必断线重连就能收到新会话的事件
func (s *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	convIDs, err := s.convRepo.GetConversationIDsByUser(context.Background(), userID)
	if err != nil {
		log.Error("获取会话列表失败", "userID", userID, "err", err)
		return
	}

	userChannel := consts.IMUserKey + strconv.FormatUint(userID, 10)
	channels := []string{userChannel}
	for _, id := range convIDs {
		channels = append(channels, consts.IMConversationKey+strconv.FormatUint(id, 10))
	}

	pubsub := redis.Subscribe(context.Background(), channels...)
	defer func() {
		_ = pubsub.Close()
	}()

	log.Info("用户 WS 连接已建立", "userID", userID, "channels", len(channels))

	stopChan := make(chan struct{})

	// 读循环：处理订阅控制帧，连接出错即退出
	go func() {
		defer close(stopChan)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ctrl dto.WsControlReq
			if err = json.Unmarshal(raw, &ctrl); err != nil || ctrl.ConversationID == 0 {
				continue
			}
			s.handleControl(userID, pubsub, &ctrl)
		}
	}()

	// 写循环：监听 Redis 并推送至客户端
	redisCh := pubsub.Channel()
	for {
		select {
		case msg, ok := <-redisCh:
			if !ok {
				return
			}
			// 用户频道上的新会话事件，直接补订会话频道，客户端不必重连
			if msg.Channel == userChannel {
				s.autoSubscribe(pubsub, []byte(msg.Payload))
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err = conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Error("WS 推送失败", "userID", userID, "err", err)
				return
			}
		case <-stopChan:
			log.Info("用户 WS 连接已断开", "userID", userID)
			return
		}
	}
}

func (s *WsHandler) autoSubscribe(pubsub *goredis.PubSub, payload []byte) {
	var event dto.ChangeEventDTO
	if err := json.Unmarshal(payload, &event); err != nil {
		return
	}
	if event.Table != consts.TableConversations || event.ConversationID == 0 {
		return
	}
	channel := consts.IMConversationKey + strconv.FormatUint(event.ConversationID, 10)
	if err := pubsub.Subscribe(context.Background(), channel); err != nil {
		log.Error("WS 自动订阅失败", "channel", channel, "err", err)
	}
}

func (s *WsHandler) handleControl(userID uint64, pubsub *goredis.PubSub, ctrl *dto.WsControlReq) {
	ctx := context.Background()
	channel := consts.IMConversationKey + strconv.FormatUint(ctrl.ConversationID, 10)

	switch ctrl.Action {
	case "subscribe":
		// 订阅前校验成员资格，避免旁听他人会话
		isMember, err := s.convRepo.IsParticipant(ctx, ctrl.ConversationID, userID)
		if err != nil || !isMember {
			log.Warn("WS 订阅被拒绝", "userID", userID, "convID", ctrl.ConversationID, "err", err)
			return
		}
		if err = pubsub.Subscribe(ctx, channel); err != nil {
			log.Error("WS 订阅失败", "channel", channel, "err", err)
		}
	case "unsubscribe":
		if err := pubsub.Unsubscribe(ctx, channel); err != nil {
			log.Error("WS 退订失败", "channel", channel, "err", err)
		}
	}
}
