package core

import "github.com/provenance-io/warehouse-facility/pkg/domain"

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
	Rule            = domain.Rule
	RulesEngine     = domain.RulesEngine
	Result          = domain.Result
	Change          = domain.Change
)
