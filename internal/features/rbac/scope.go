package rbac

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RowPolicy declares a resource's row-ownership shape for the scoper. Every
// field except BypassPermission is a bson field name on the resource's
// collection; empty fields mean the resource has no such linkage.
type RowPolicy struct {
	Resource           string // resource tag, for diagnostics
	OwnerField         string // direct lead/owner reference, e.g. "lead_lawyer_id"
	AccessField        string // array of explicitly granted user ids, e.g. "access_user_ids"
	ClientField        string // direct client reference, e.g. "client_id"
	MatterField        string // parent matter reference for child rows, e.g. "matter_id"
	ClientVisibleField string // rows clients may see must carry this flag, e.g. "client_visible"
	BypassPermission   string // lifts row narrowing within the tenant, e.g. "matter.view_all"
}

// MatterResolver resolves the matter ids a subject can reach; child resources
// are narrowed through their parent matter.
type MatterResolver interface {
	// VisibleMatterIDs returns matters where the user is lead or explicitly granted.
	VisibleMatterIDs(ctx context.Context, orgID, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	// ClientMatterIDs returns matters belonging to the client.
	ClientMatterIDs(ctx context.Context, orgID, clientID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// DenyFilter matches no documents; _id is always an ObjectId.
func DenyFilter() bson.M {
	return bson.M{"_id": -1}
}

// Scoper builds the Mongo filter restricting a collection to what the
// principal may see. Filtering is pure given the resolver's answers:
// organization scoping is unconditional and precedes all row-level logic, a
// bypass permission widens only within the tenant, and a client-portal link
// takes precedence over staff ownership when both are present.
type Scoper struct {
	evaluator *Evaluator
	matters   MatterResolver
}

func NewScoper(evaluator *Evaluator, matters MatterResolver) *Scoper {
	return &Scoper{evaluator: evaluator, matters: matters}
}

// Scope returns the filter for the principal under the row policy. Missing
// identity or organization fails closed.
func (s *Scoper) Scope(ctx context.Context, principal Principal, policy RowPolicy) (bson.M, error) {
	if !principal.Authenticated || principal.OrganizationID.IsZero() {
		return DenyFilter(), nil
	}

	filter := bson.M{"tenant_id": principal.OrganizationID}

	if policy.BypassPermission != "" {
		bypass, err := s.evaluator.HasPermission(ctx, principal, policy.BypassPermission)
		if err != nil {
			return nil, err
		}
		if bypass {
			return filter, nil
		}
	}

	if principal.IsClient() {
		return s.clientScope(ctx, principal, policy, filter)
	}
	return s.staffScope(ctx, principal, policy, filter)
}

func (s *Scoper) clientScope(ctx context.Context, principal Principal, policy RowPolicy, filter bson.M) (bson.M, error) {
	switch {
	case policy.ClientField != "":
		filter[policy.ClientField] = principal.ClientID
	case policy.MatterField != "":
		ids, err := s.matters.ClientMatterIDs(ctx, principal.OrganizationID, principal.ClientID)
		if err != nil {
			return nil, err
		}
		filter[policy.MatterField] = bson.M{"$in": nonNilIDs(ids)}
	default:
		// Resource has no client linkage; portal users see nothing.
		return DenyFilter(), nil
	}
	if policy.ClientVisibleField != "" {
		filter[policy.ClientVisibleField] = true
	}
	return filter, nil
}

func (s *Scoper) staffScope(ctx context.Context, principal Principal, policy RowPolicy, filter bson.M) (bson.M, error) {
	var conditions []bson.M
	if policy.OwnerField != "" {
		conditions = append(conditions, bson.M{policy.OwnerField: principal.UserID})
	}
	if policy.AccessField != "" {
		conditions = append(conditions, bson.M{policy.AccessField: principal.UserID})
	}
	if policy.MatterField != "" {
		ids, err := s.matters.VisibleMatterIDs(ctx, principal.OrganizationID, principal.UserID)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, bson.M{policy.MatterField: bson.M{"$in": nonNilIDs(ids)}})
	}

	switch len(conditions) {
	case 0:
		return DenyFilter(), nil
	case 1:
		for field, value := range conditions[0] {
			filter[field] = value
		}
	default:
		filter["$or"] = conditions
	}
	return filter, nil
}

func nonNilIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}
