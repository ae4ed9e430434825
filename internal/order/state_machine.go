package order

import (
	"fmt"
	"time"
)

// AllowTransition 定义工单状态机的允许流转关系。
// Open -> Closed 是唯一一条边；Closed 是终态，不存在回退或删除。
var AllowTransition = map[Status][]Status{
	StatusOpen:   {StatusClosed},
	StatusClosed: {},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
func CanTransition(from, to Status) bool {
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition 对工单应用状态变更，并维护关单时间。
// 仅在 CanTransition 返回 true 时生效；重复关单会在这里被拦下。
func ApplyTransition(o *ServiceOrder, to Status, now time.Time) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	from := o.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid order status transition: %s -> %s", from, to)
	}

	o.Status = to

	if to == StatusClosed && o.ClosedAt == nil {
		t := now
		o.ClosedAt = &t
	}
	return nil
}
