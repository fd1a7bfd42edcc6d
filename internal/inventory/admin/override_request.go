package admin

import "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"

const (
	ActionDirectRackStockUpdate = "direct_rack_stock_update"
	ActionDirectStockUpdate     = "direct_stock_update"
)

// OverrideRequest targets one product in one rack of a project. A nil
// StockOnHand or StockOnHold leaves that value as it is.
type OverrideRequest struct {
	ProductID   string `json:"productId" binding:"required"`
	ProjectID   string `json:"projectId" binding:"required"`
	RackID      string `json:"rackId"`
	RackNumber  string `json:"rackNumber"`
	StockOnHand *int   `json:"stockOnHand" binding:"omitempty,gte=0"`
	StockOnHold *int   `json:"stockOnHold" binding:"omitempty,gte=0"`
	Reason      string `json:"reason" binding:"required"`
}

// LedgerValues is the state of one product in one rack before or after an override.
type LedgerValues struct {
	StockOnHand int `json:"stockOnHand"`
	RackHold    int `json:"rackHold"`
	ProjectHold int `json:"projectHold"`
}

func (v LedgerValues) asMap() map[string]interface{} {
	return map[string]interface{}{
		"stockOnHand": v.StockOnHand,
		"rackHold":    v.RackHold,
		"projectHold": v.ProjectHold,
	}
}

type OverrideResult struct {
	Success     bool                `json:"success"`
	AdminAction *models.AdminAction `json:"adminAction"`
	Before      LedgerValues        `json:"before"`
	After       LedgerValues        `json:"after"`
}
