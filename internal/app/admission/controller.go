// internal/app/admission/controller.go
package admission

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	participantstore "github.com/dalemusser/giftmatch/internal/app/store/participants"
	"github.com/dalemusser/giftmatch/internal/app/system/htmlsanitize"
	"github.com/dalemusser/giftmatch/internal/app/system/inputval"
	"github.com/dalemusser/giftmatch/internal/app/system/normalize"
	"github.com/dalemusser/giftmatch/internal/domain/models"
)

// Identity is a verified account from the sign-in provider. Name and Email
// come from the provider's userinfo response; the participant supplies the
// registered name and phone themselves.
type Identity struct {
	ProviderID string
	Name       string
	Email      string
}

// Status describes where an identity stands after sign-in.
type Status string

const (
	// StatusRegistered means a participant record exists for the identity.
	StatusRegistered Status = "registered"
	// StatusNeedsRegistration means the identity is verified but has no
	// participant record yet.
	StatusNeedsRegistration Status = "needs_registration"
)

var (
	// ErrInvalidName rejects empty or over-long display names.
	ErrInvalidName = errors.New("name must be 1-100 characters")

	// ErrInvalidPhone rejects numbers that are not an optional '+'
	// followed by 10-15 digits once formatting is stripped.
	ErrInvalidPhone = errors.New("phone must be 10-15 digits with an optional leading +")

	// ErrMissingIdentity is returned when registration is attempted
	// without a verified provider identity.
	ErrMissingIdentity = errors.New("sign in before registering")
)

// Controller admits identities into the participant pool: it decides whether
// a sign-in maps to an existing participant and performs first-time
// registration.
type Controller struct {
	participants *participantstore.Store
	adminEmails  map[string]struct{}
	log          *zap.Logger
}

// New builds a Controller. adminEmails lists addresses that register with
// the admin role.
func New(participants *participantstore.Store, adminEmails []string, logger *zap.Logger) *Controller {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalize.Email(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Controller{participants: participants, adminEmails: admins, log: logger}
}

// AdminCount returns the size of the operator allow-list.
func (c *Controller) AdminCount() int { return len(c.adminEmails) }

// BeginSession resolves a verified identity to its participant record, if
// one exists. StatusNeedsRegistration with a nil participant means the
// caller should route to registration.
func (c *Controller) BeginSession(ctx context.Context, id Identity) (Status, *models.Participant, error) {
	if id.ProviderID == "" {
		return "", nil, ErrMissingIdentity
	}

	p, err := c.participants.GetByGoogleID(ctx, id.ProviderID)
	if err == mongo.ErrNoDocuments {
		return StatusNeedsRegistration, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if !p.Complete() {
		// A record missing its name or phone never finished registration.
		return StatusNeedsRegistration, p, nil
	}
	return StatusRegistered, p, nil
}

// CompleteRegistration validates the submitted name and phone and creates
// the participant record for the identity.
//
// The duplicate-contact check here is read-then-write: two concurrent
// registrations with the same phone can both pass it. The unique phone index
// closes that window; the second insert surfaces ErrDuplicateContact from
// the store.
func (c *Controller) CompleteRegistration(ctx context.Context, id Identity, fullName, phone string) (models.Participant, error) {
	if id.ProviderID == "" {
		return models.Participant{}, ErrMissingIdentity
	}

	fullName = htmlsanitize.StripTags(fullName)
	if !inputval.IsValidFullName(fullName) {
		return models.Participant{}, ErrInvalidName
	}

	phone = normalize.Phone(phone)
	if !inputval.IsValidPhone(phone) {
		return models.Participant{}, ErrInvalidPhone
	}

	exists, err := c.participants.PhoneExists(ctx, phone)
	if err != nil {
		return models.Participant{}, err
	}
	if exists {
		return models.Participant{}, participantstore.ErrDuplicateContact
	}

	// An interrupted registration leaves a record missing its name or
	// phone. Completion merges onto that record rather than inserting a
	// second document for the same account; only a record that already
	// holds both fields is a true duplicate.
	existing, err := c.participants.GetByGoogleID(ctx, id.ProviderID)
	switch {
	case err == mongo.ErrNoDocuments:
		// first registration, insert below
	case err != nil:
		return models.Participant{}, err
	case existing.Complete():
		return models.Participant{}, participantstore.ErrDuplicateIdentity
	default:
		updated, err := c.participants.CompleteProfile(ctx, existing.ID, fullName, phone)
		if err != nil {
			return models.Participant{}, err
		}
		c.log.Info("participant registration completed",
			zap.String("participant_id", updated.ID.Hex()),
			zap.String("role", updated.Role))
		return *updated, nil
	}

	created, err := c.participants.Create(ctx, models.Participant{
		GoogleID: id.ProviderID,
		FullName: fullName,
		Email:    id.Email,
		Phone:    phone,
		Role:     c.roleFor(id.Email),
	})
	if err != nil {
		return models.Participant{}, err
	}

	c.log.Info("participant registered",
		zap.String("participant_id", created.ID.Hex()),
		zap.String("role", created.Role))
	return created, nil
}

func (c *Controller) roleFor(email string) string {
	if _, ok := c.adminEmails[normalize.Email(email)]; ok {
		return "admin"
	}
	return "participant"
}
