package constants

// 通用错误消息
const (
	// 权限相关错误
	ErrUnauthorized    = "未授权，请先登录"
	ErrInvalidToken    = "无效的Token"
	ErrRequireAdmin    = "需要管理员权限"
	ErrTooManyRequests = "请求过于频繁，请稍后重试"

	// 参数相关错误
	ErrInvalidParams    = "参数错误"
	ErrInvalidRequest   = "无效请求格式"
	ErrInvalidProductID = "无效的商品ID"
	ErrInvalidOrderID   = "无效的订单ID"
	ErrCardContentEmpty = "卡密内容不能为空"
	ErrNoCardsSelected  = "请选择要重新上架的卡密"
	ErrQueryEmpty       = "请输入订单号或邮箱"
	ErrQueryPassword    = "请输入查询密码"
	ErrInvalidQuantity  = "数量必须在1到100之间"
	ErrInvalidEmail     = "请输入有效的邮箱地址"
	ErrPasswordLength   = "查询密码长度需为6到32位"
	ErrInvalidPayMethod = "不支持的支付方式"
	ErrInvalidPrice     = "商品价格必须大于0"
	ErrProductNameEmpty = "商品名称不能为空"

	// 公告相关错误
	ErrInvalidAnnouncementID = "无效的公告ID"
	ErrAnnouncementTitle     = "公告标题不能为空且不超过100个字符"
	ErrAnnouncementContent   = "公告内容不能为空"
	ErrAnnouncementWindow    = "结束时间必须晚于开始时间"
	ErrAnnouncementNotFound  = "公告不存在"

	// 订单相关错误
	ErrOrderNotFound      = "订单不存在"
	ErrOrderInvalidState  = "订单状态不允许此操作"
	ErrOrderConflict      = "订单状态已变更，请刷新后重试"
	ErrInsufficientStock  = "库存不足"
	ErrProductNotFound    = "商品不存在或已下架"
	ErrProductMissing     = "商品不存在"
	ErrQueryNoMatch       = "未找到匹配的订单或查询密码错误"
	ErrPaymentUnavailable = "支付通道未配置"

	// 系统错误
	ErrInternalServer   = "服务器内部错误"
	ErrStoreUnavailable = "存储暂时不可用，请稍后重试"
)

// 成功消息
const (
	SuccessCreate   = "创建成功"
	SuccessGet      = "获取成功"
	SuccessComplete = "订单已完成，卡密已发放"
	SuccessRefund   = "订单已退款"
	SuccessUpdate   = "更新成功"
	SuccessDelete   = "删除成功"
)

// DefaultAdminRemark 管理员手动完成订单的默认备注
const DefaultAdminRemark = "管理员手动完成"

// 回调响应，网关依据响应文本决定是否重试
const (
	NotifySuccess = "success"
	NotifyFail    = "fail"
)
