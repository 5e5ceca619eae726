package core

import (
	"context"
	"fmt"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// LifecycleTransitionRule blocks illegal pledge and paydown status transitions.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

type lifecycleMachine struct {
	entity  domain.EntityType
	label   string
	initial string
	// next maps a status to the statuses it may move to.
	next      map[string]map[string]struct{}
	extractor func(payload domain.ChangePayload) (id string, state string, ok bool)
}

var lifecycleMachines = map[domain.EntityType]lifecycleMachine{
	domain.EntityPledge: {
		entity:  domain.EntityPledge,
		label:   "pledge",
		initial: string(domain.PledgeProposed),
		next: map[string]map[string]struct{}{
			string(domain.PledgeProposed):  toSet(string(domain.PledgeAccepted), string(domain.PledgeCancelled)),
			string(domain.PledgeAccepted):  toSet(string(domain.PledgeCancelled), string(domain.PledgeExecuted)),
			string(domain.PledgeExecuted):  toSet(string(domain.PledgeClosed)),
			string(domain.PledgeCancelled): toSet(),
			string(domain.PledgeClosed):    toSet(),
		},
		extractor: func(payload domain.ChangePayload) (string, string, bool) {
			pledge, ok := domain.DecodeChangePayload[domain.Pledge](payload)
			if !ok {
				return "", "", false
			}
			return pledge.ID, string(pledge.Status), true
		},
	},
	domain.EntityPaydown: {
		entity:  domain.EntityPaydown,
		label:   "paydown",
		initial: string(domain.PaydownProposed),
		next: map[string]map[string]struct{}{
			string(domain.PaydownProposed):  toSet(string(domain.PaydownAccepted), string(domain.PaydownCancelled)),
			string(domain.PaydownAccepted):  toSet(string(domain.PaydownCancelled), string(domain.PaydownExecuted)),
			string(domain.PaydownCancelled): toSet(),
			string(domain.PaydownExecuted):  toSet(),
		},
		extractor: func(payload domain.ChangePayload) (string, string, bool) {
			paydown, ok := domain.DecodeChangePayload[domain.Paydown](payload)
			if !ok {
				return "", "", false
			}
			return paydown.ID, string(paydown.Status), true
		},
	},
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (r lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		machine, ok := lifecycleMachines[change.Entity]
		if !ok {
			continue
		}
		afterID, afterState, ok := machine.extractor(change.After)
		if !ok {
			continue
		}
		if _, known := machine.next[afterState]; !known {
			res.Violations = append(res.Violations, r.violation(machine, afterID,
				fmt.Sprintf("%s %s is set to invalid state %s", machine.label, afterID, afterState)))
			continue
		}

		_, beforeState, ok := machine.extractor(change.Before)
		if !ok {
			if afterState != machine.initial {
				res.Violations = append(res.Violations, r.violation(machine, afterID,
					fmt.Sprintf("%s %s must be created in state %s, got %s", machine.label, afterID, machine.initial, afterState)))
			}
			continue
		}
		if beforeState == afterState {
			continue
		}
		if _, allowed := machine.next[beforeState][afterState]; !allowed {
			res.Violations = append(res.Violations, r.violation(machine, afterID,
				fmt.Sprintf("cannot move %s %s from %s to %s", machine.label, afterID, beforeState, afterState)))
		}
	}
	return res, nil
}

func (lifecycleTransitionRule) violation(machine lifecycleMachine, id, message string) domain.Violation {
	return domain.Violation{
		Rule:     "lifecycle_transition",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   machine.entity,
		EntityID: id,
	}
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
