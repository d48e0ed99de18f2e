package consts

const (
	MimePrefixImage = "image"
	MimePrefixAudio = "audio"
	MimePrefixVideo = "video"
)

// 变更事件涉及的表名，也是推送给客户端的 table 字段取值
const (
	TableConversations = "conversations"
	TableMessages      = "messages"
	TableReactions     = "message_reactions"
	TableUsers         = "users"
)

// 变更事件类型
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)
