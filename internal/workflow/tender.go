package workflow

import "github.com/ormasrl/tenderdesk/internal/model"

// DeriveTenderStatus computes the aggregate tender status from its lots and
// the manual-close override. Deterministic and order-independent; never
// persisted as ground truth.
func DeriveTenderStatus(lots []model.LotStatus, manualClose bool) model.TenderStatus {
	if manualClose {
		return model.TenderStatusManuallyClosed
	}

	allDraft := true
	allTerminal := len(lots) > 0
	for _, s := range lots {
		if s != model.LotStatusDraft {
			allDraft = false
		}
		if !s.Terminal() {
			allTerminal = false
		}
	}

	switch {
	case len(lots) == 0 || allDraft:
		return model.TenderStatusDraft
	case allTerminal:
		return model.TenderStatusConcluded
	default:
		return model.TenderStatusInProgress
	}
}
