package compliance

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Evaluator answers the question "may this user join a conversation about
// this patient". It fails closed: any store error yields a non-compliant
// result instead of propagating, so a flaky database can never admit a
// member it should not.
type Evaluator struct {
	users    UserLookup
	consents ConsentRepository
	log      zerolog.Logger
}

func NewEvaluator(users UserLookup, consents ConsentRepository, log zerolog.Logger) *Evaluator {
	return &Evaluator{users: users, consents: consents, log: log}
}

// CheckUser evaluates one user against one patient.
func (e *Evaluator) CheckUser(ctx context.Context, userID, patientID uuid.UUID) Result {
	subject, err := e.users.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return Result{UserID: userID, Compliant: false, Reason: ReasonUserNotFound}
		}
		e.log.Error().Err(err).Stringer("user_id", userID).Msg("compliance check failed")
		return Result{UserID: userID, Compliant: false, Reason: ReasonCheckError}
	}

	if subject.IsExternal {
		return Result{UserID: userID, Compliant: true, Reason: ReasonExternalUser}
	}
	if subject.OrganizationID == nil {
		return Result{UserID: userID, Compliant: false, Reason: ReasonNoOrganization}
	}

	ok, err := e.consents.HasActiveConsent(ctx, patientID, *subject.OrganizationID)
	if err != nil {
		e.log.Error().Err(err).Stringer("user_id", userID).Stringer("patient_id", patientID).
			Msg("compliance check failed")
		return Result{UserID: userID, Compliant: false, Reason: ReasonCheckError}
	}
	if !ok {
		return Result{UserID: userID, Compliant: false, Reason: ReasonNoActiveConsent}
	}
	return Result{UserID: userID, Compliant: true, Reason: ReasonValidConsent}
}

// CheckUsers evaluates each user concurrently. Results come back in input
// order; the checks are independent read-only lookups.
func (e *Evaluator) CheckUsers(ctx context.Context, userIDs []uuid.UUID, patientID uuid.UUID) []Result {
	results := make([]Result, len(userIDs))
	var wg sync.WaitGroup
	for i, id := range userIDs {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			results[i] = e.CheckUser(ctx, id, patientID)
		}(i, id)
	}
	wg.Wait()
	return results
}
