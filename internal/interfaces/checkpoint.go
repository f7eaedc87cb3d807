package interfaces

import "stock-screener/internal/types"

// Checkpoint persists the per-symbol analysis documents between runs. Save
// replaces the whole document set; partial updates go through Load-mutate-Save.
type Checkpoint interface {
	Load() (map[string]*types.StockRecord, error)
	Save(records map[string]*types.StockRecord) error
}
