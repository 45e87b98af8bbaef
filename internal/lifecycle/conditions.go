package lifecycle

import (
	"fmt"
	"strings"

	"github.com/erazemk/oprema/internal/model"
)

// Return conditions as operators record them.
const (
	ConditionNormal         = "ปกติ"
	ConditionBroken         = "ชำรุด"
	ConditionLost           = "สูญหาย"
	ConditionRepair         = "ส่งซ่อม"
	ConditionPendingVendor  = "รอส่งเคลม"
	ConditionPendingRecheck = "รอตรวจสอบ"
)

var conditionStatus = map[string]model.Status{
	ConditionNormal:         model.StatusAvailable,
	ConditionBroken:         model.StatusBroken,
	ConditionLost:           model.StatusLost,
	ConditionRepair:         model.StatusRepair,
	ConditionPendingVendor:  model.StatusPendingVendor,
	ConditionPendingRecheck: model.StatusPendingRecheck,

	"normal":          model.StatusAvailable,
	"broken":          model.StatusBroken,
	"lost":            model.StatusLost,
	"repair":          model.StatusRepair,
	"pending_vendor":  model.StatusPendingVendor,
	"pending_recheck": model.StatusPendingRecheck,
}

// StatusForCondition maps a return condition to the status the asset takes.
func StatusForCondition(condition string) (model.Status, error) {
	key := strings.ToLower(strings.TrimSpace(condition))
	if key == "" {
		return model.StatusAvailable, nil
	}
	status, ok := conditionStatus[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown return condition %q", ErrInvalid, condition)
	}
	return status, nil
}
