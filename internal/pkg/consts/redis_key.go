package consts

const (
	// IMConversationKey + 会话ID：该会话的变更推送频道
	IMConversationKey = "im:conversation:"
	// IMUserKey + 用户ID：面向单个用户的变更推送频道（会话集合变化等）
	IMUserKey = "im:user:"

	UserInfoKey = "user:info:"
)
