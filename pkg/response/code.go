package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005
	ErrUserDeleted  = 10006

	// 分类与过滤器 200xx
	ErrCategoryNotFound = 20001
	ErrCategoryInactive = 20002
	ErrFilterNotFound   = 20003
	ErrFilterInvalid    = 20004

	// 帖子 300xx
	ErrPostNotFound     = 30001
	ErrAttributeInvalid = 30002
	ErrVersionNotFound  = 30003
	ErrPhotoNotFound    = 30004
	ErrSearchInvalid    = 30005

	// 购物车 400xx
	ErrCartItemNotFound  = 40001
	ErrInsufficientStock = 40002
	ErrCartQuantity      = 40003

	// 菜单 600xx
	ErrMenuNotFound = 60001

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
