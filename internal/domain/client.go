package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionInactive  SubscriptionStatus = "INACTIVE"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionPending   SubscriptionStatus = "PENDING"
)

// AllSubscriptionStatuses lists every known subscription status.
var AllSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionActive,
	SubscriptionInactive,
	SubscriptionExpired,
	SubscriptionCancelled,
	SubscriptionPending,
}

func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	v := SubscriptionStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllSubscriptionStatuses {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown subscription status %q", s)
}

type SubscriptionPlan string

const (
	PlanBasic SubscriptionPlan = "BASIC"
	PlanPro   SubscriptionPlan = "PRO"
	PlanElite SubscriptionPlan = "ELITE"
)

func ParseSubscriptionPlan(s string) (SubscriptionPlan, error) {
	switch p := SubscriptionPlan(strings.ToUpper(strings.TrimSpace(s))); p {
	case PlanBasic, PlanPro, PlanElite:
		return p, nil
	default:
		return "", fmt.Errorf("unknown subscription plan %q", s)
	}
}

// Client is the coaching profile linked to a CLIENT user account.
// TrainerID is the single source of truth for the trainer-client relationship.
type Client struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID  `bson:"userId" json:"userId"`
	Name               string              `bson:"name" json:"name"` // Denormalized from the user for listings
	TrainerID          *primitive.ObjectID `bson:"trainerId" json:"trainerId,omitempty"`
	SubscriptionStatus SubscriptionStatus  `bson:"subscriptionStatus" json:"subscriptionStatus"`
	SubscriptionPlan   *SubscriptionPlan   `bson:"subscriptionPlan,omitempty" json:"subscriptionPlan,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// HasActiveSubscription reports whether the client may receive new
// assignments or a trainer.
func (c *Client) HasActiveSubscription() bool {
	return c.SubscriptionStatus == SubscriptionActive
}

func (c *Client) HasTrainer() bool {
	return c.TrainerID != nil && *c.TrainerID != primitive.NilObjectID
}

// IsManagedBy reports whether trainerID is the client's assigned trainer.
func (c *Client) IsManagedBy(trainerID primitive.ObjectID) bool {
	return c.HasTrainer() && *c.TrainerID == trainerID
}
