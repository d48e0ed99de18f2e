package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUserUsernameExist = errors.New("用户名已存在")
	ErrPasswordIncorrect = errors.New("密码错误")
	ErrConversation      = errors.New("会话异常")
	ErrGroupNameRequired = errors.New("群聊必须指定名称")
	ErrNotParticipant    = errors.New("不是该会话的成员")
	ErrMessageNotFound   = errors.New("消息不存在")
	ErrMessageEmpty      = errors.New("消息内容不能为空")
	ErrContentType       = errors.New("不支持的消息类型")
	ErrReplyCrossConv    = errors.New("只能回复同一会话内的消息")
	ErrFileNotSupported  = errors.New("不支持的文件类型")
	UnauthorizedError    = errors.New("权限不足")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrUserNotFound:      NotFound,
	ErrUserUsernameExist: BadRequest,
	ErrPasswordIncorrect: Unauthorized,
	ErrConversation:      BadRequest,
	ErrGroupNameRequired: BadRequest,
	ErrNotParticipant:    Unauthorized,
	ErrMessageNotFound:   NotFound,
	ErrMessageEmpty:      BadRequest,
	ErrContentType:       BadRequest,
	ErrReplyCrossConv:    BadRequest,
	ErrFileNotSupported:  BadRequest,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,
}
