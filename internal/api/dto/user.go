package dto

// RegisterReq 注册请求体
type RegisterReq struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginReq 登录请求体
type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRes 登录响应
type LoginRes struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}

// UserDTO 对外公开的用户资料
type UserDTO struct {
	ID        uint64  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}
