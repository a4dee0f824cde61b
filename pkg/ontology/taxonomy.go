package ontology

import "slices"

// The engine models arbitrary domains through closed string taxonomies
// rather than per-domain tables. Each taxonomy is a typed string with a
// Valid method; persistence stores the plain string. The lists here are
// the boundary-layer source of truth for validation and for the schema
// discovery endpoint.

// GroupType classifies a tenant container, from informal friend circles
// up to governments.
type GroupType string

const (
	GroupTypeFriendCircle GroupType = "friend_circle"
	GroupTypeBusiness     GroupType = "business"
	GroupTypeCommunity    GroupType = "community"
	GroupTypeDAO          GroupType = "dao"
	GroupTypeGovernment   GroupType = "government"
	GroupTypeOrganization GroupType = "organization"
)

var groupTypes = []GroupType{
	GroupTypeFriendCircle,
	GroupTypeBusiness,
	GroupTypeCommunity,
	GroupTypeDAO,
	GroupTypeGovernment,
	GroupTypeOrganization,
}

func (t GroupType) Valid() bool {
	return slices.Contains(groupTypes, t)
}

// GroupTypes returns the full group type taxonomy.
func GroupTypes() []GroupType {
	return slices.Clone(groupTypes)
}

// GroupStatus is the two-state group lifecycle. Archiving is a soft
// delete and always reversible.
type GroupStatus string

const (
	GroupStatusActive   GroupStatus = "active"
	GroupStatusArchived GroupStatus = "archived"
)

var groupStatuses = []GroupStatus{GroupStatusActive, GroupStatusArchived}

func (s GroupStatus) Valid() bool {
	return slices.Contains(groupStatuses, s)
}

// GroupStatuses returns the group lifecycle states.
func GroupStatuses() []GroupStatus {
	return slices.Clone(groupStatuses)
}

// ThingStatus is the five-state Thing lifecycle. Transitions are
// unconstrained; any value may follow any other.
type ThingStatus string

const (
	ThingStatusDraft     ThingStatus = "draft"
	ThingStatusActive    ThingStatus = "active"
	ThingStatusPublished ThingStatus = "published"
	ThingStatusArchived  ThingStatus = "archived"
	ThingStatusInactive  ThingStatus = "inactive"
)

var thingStatuses = []ThingStatus{
	ThingStatusDraft,
	ThingStatusActive,
	ThingStatusPublished,
	ThingStatusArchived,
	ThingStatusInactive,
}

func (s ThingStatus) Valid() bool {
	return slices.Contains(thingStatuses, s)
}

// ThingStatuses returns the full status taxonomy.
func ThingStatuses() []ThingStatus {
	return slices.Clone(thingStatuses)
}

// ThingType classifies a polymorphic entity. Only the types the engine
// itself references get named constants; the full taxonomy lives in
// thingTypes below.
type ThingType string

const (
	ThingTypePerson         ThingType = "person"
	ThingTypeCreator        ThingType = "creator"
	ThingTypeAIClone        ThingType = "ai_clone"
	ThingTypeAudienceMember ThingType = "audience_member"
	ThingTypeOrganization   ThingType = "organization"
	ThingTypeKnowledgeItem  ThingType = "knowledge_item"
	ThingTypeProduct        ThingType = "product"
)

var thingTypes = []ThingType{
	// People as Things
	ThingTypePerson, ThingTypeCreator, ThingTypeAIClone,
	ThingTypeAudienceMember, ThingTypeOrganization,
	// Business agents
	"strategy_agent", "research_agent", "marketing_agent", "sales_agent",
	"service_agent", "design_agent", "engineering_agent", "finance_agent",
	"legal_agent", "intelligence_agent",
	// Content
	"blog_post", "video", "podcast", "social_post", "email", "course", "lesson",
	// Products
	"digital_product", "membership", "consultation", "nft",
	// Community
	"community", "conversation", "message",
	// Token
	"token", "token_contract",
	// Knowledge
	ThingTypeKnowledgeItem, "embedding",
	// Platform
	"website", "landing_page", "template", "livestream", "recording", "media_asset",
	// Business records
	"payment", "subscription", "invoice", "metric", "insight", "prediction", "report",
	// Auth sessions
	"session", "oauth_account", "verification_token", "password_reset_token",
	// UI preferences
	"ui_preferences",
	// Marketing
	"notification", "email_campaign", "announcement", "referral", "campaign", "lead",
	// External integrations
	"external_agent", "external_workflow", "external_connection",
	// Protocol
	"mandate", ThingTypeProduct,
	// Workflow
	"idea", "plan", "feature", "test", "design", "task",
}

var thingTypeSet = toSet(thingTypes)

func (t ThingType) Valid() bool {
	_, ok := thingTypeSet[t]
	return ok
}

// ThingTypes returns the full entity type taxonomy.
func ThingTypes() []ThingType {
	return slices.Clone(thingTypes)
}

// personTypes are the Thing types that may act as an Event actor.
var personTypes = []ThingType{
	ThingTypePerson, ThingTypeCreator, ThingTypeAIClone,
	ThingTypeAudienceMember, ThingTypeOrganization,
}

// Person reports whether a Thing of this type belongs to the
// people category and may therefore appear as an Event actor.
func (t ThingType) Person() bool {
	return slices.Contains(personTypes, t)
}

// ConnectionType classifies a directed edge between two Things.
type ConnectionType string

const (
	ConnectionTypeOwns       ConnectionType = "owns"
	ConnectionTypeCreatedBy  ConnectionType = "created_by"
	ConnectionTypeMemberOf   ConnectionType = "member_of"
	ConnectionTypeEnrolledIn ConnectionType = "enrolled_in"
)

var connectionTypes = []ConnectionType{
	// Ownership
	ConnectionTypeOwns, ConnectionTypeCreatedBy,
	// AI relationships
	"clone_of", "trained_on", "powers",
	// Content relationships
	"authored", "generated_by", "published_to", "part_of", "references",
	// Community relationships
	ConnectionTypeMemberOf, "following", "moderates", "participated_in",
	// Business relationships
	"manages", "reports_to", "collaborates_with",
	// Token relationships
	"holds_tokens", "staked_in", "earned_from",
	// Product relationships
	"purchased", ConnectionTypeEnrolledIn, "completed", "teaching",
	// Consolidated families
	"transacted", "notified", "referred", "communicated", "delegated",
	"approved", "fulfilled",
}

var connectionTypeSet = toSet(connectionTypes)

func (t ConnectionType) Valid() bool {
	_, ok := connectionTypeSet[t]
	return ok
}

// ConnectionTypes returns the full relationship taxonomy.
func ConnectionTypes() []ConnectionType {
	return slices.Clone(connectionTypes)
}

// EventType classifies an audit record. The engine appends the mutation
// types itself; the remaining domain activity types arrive through the
// public append API.
type EventType string

const (
	EventGroupCreated  EventType = "group_created"
	EventGroupUpdated  EventType = "group_updated"
	EventGroupArchived EventType = "group_archived"
	EventGroupRestored EventType = "group_restored"

	EventThingCreated  EventType = "thing_created"
	EventThingUpdated  EventType = "thing_updated"
	EventThingArchived EventType = "thing_archived"
	EventThingRestored EventType = "thing_restored"

	EventConnectionCreated EventType = "connection_created"
	EventConnectionUpdated EventType = "connection_updated"
	EventConnectionDeleted EventType = "connection_deleted"

	EventKnowledgeCreated EventType = "knowledge_created"
	EventKnowledgeUpdated EventType = "knowledge_updated"
	EventKnowledgeDeleted EventType = "knowledge_deleted"
	EventKnowledgeLinked  EventType = "knowledge_linked"
)

var eventTypes = []EventType{
	// Store mutations
	EventGroupCreated, EventGroupUpdated, EventGroupArchived, EventGroupRestored,
	EventThingCreated, EventThingUpdated, EventThingArchived, EventThingRestored,
	EventConnectionCreated, EventConnectionUpdated, EventConnectionDeleted,
	EventKnowledgeCreated, EventKnowledgeUpdated, EventKnowledgeDeleted,
	EventKnowledgeLinked,
	// User lifecycle
	"user_registered", "user_verified", "user_login", "user_logout",
	"profile_updated",
	// Authentication
	"password_reset_requested", "password_reset_completed",
	"email_verification_sent", "email_verified",
	"two_factor_enabled", "two_factor_disabled",
	// Organization
	"organization_created", "organization_updated",
	"user_invited_to_org", "user_joined_org", "user_removed_from_org",
	// Dashboard
	"dashboard_viewed", "settings_updated", "theme_changed", "preferences_updated",
	// AI clones
	"clone_created", "clone_updated", "voice_cloned", "appearance_cloned",
	// Agents
	"agent_created", "agent_executed", "agent_completed", "agent_failed",
	// Tokens
	"token_created", "token_minted", "token_burned",
	"tokens_purchased", "tokens_staked", "tokens_unstaked", "tokens_transferred",
	// Courses
	"course_created", "course_enrolled", "lesson_completed", "course_completed",
	"certificate_earned",
	// Analytics
	"metric_calculated", "insight_generated", "prediction_made",
	"optimization_applied", "report_generated",
	// Usage cycles
	"cycle_request", "cycle_completed", "cycle_failed",
	"cycle_quota_exceeded", "cycle_revenue_collected",
	"org_revenue_generated", "revenue_share_distributed",
	// Blockchain
	"nft_minted", "nft_transferred", "tokens_bridged", "contract_deployed",
	"treasury_withdrawal",
	// Consolidated families, protocol-specific via metadata.protocol
	"content_event", "payment_event", "subscription_event", "commerce_event",
	"livestream_event", "notification_event", "referral_event",
	"communication_event", "task_event", "mandate_event", "price_event",
	// Workflow
	"plan_started", "feature_assigned", "tasks_created",
	"feature_started", "implementation_complete", "task_started", "task_completed",
	"quality_check_started", "quality_check_complete", "test_started",
	"test_passed", "test_failed",
	"problem_analysis_started", "solution_proposed", "fix_started", "fix_complete",
	"documentation_started", "documentation_complete", "lesson_learned_added",
	"feature_complete", "plan_complete",
}

var eventTypeSet = toSet(eventTypes)

func (t EventType) Valid() bool {
	_, ok := eventTypeSet[t]
	return ok
}

// EventTypes returns the full event taxonomy.
func EventTypes() []EventType {
	return slices.Clone(eventTypes)
}

// KnowledgeType classifies a Knowledge row. A vector_only row may have
// empty content but must carry an embedding; a label may omit the
// embedding.
type KnowledgeType string

const (
	KnowledgeTypeLabel      KnowledgeType = "label"
	KnowledgeTypeDocument   KnowledgeType = "document"
	KnowledgeTypeChunk      KnowledgeType = "chunk"
	KnowledgeTypeVectorOnly KnowledgeType = "vector_only"
)

var knowledgeTypes = []KnowledgeType{
	KnowledgeTypeLabel,
	KnowledgeTypeDocument,
	KnowledgeTypeChunk,
	KnowledgeTypeVectorOnly,
}

func (t KnowledgeType) Valid() bool {
	return slices.Contains(knowledgeTypes, t)
}

// KnowledgeTypes returns the full knowledge type taxonomy.
func KnowledgeTypes() []KnowledgeType {
	return slices.Clone(knowledgeTypes)
}

// Role is an authorization role carried by the caller identity, not a
// stored dimension. Roles map to permission sets at the HTTP boundary.
type Role string

const (
	RolePlatformOwner Role = "platform_owner"
	RoleOrgOwner      Role = "org_owner"
	RoleOrgUser       Role = "org_user"
	RoleCustomer      Role = "customer"
)

var roles = []Role{RolePlatformOwner, RoleOrgOwner, RoleOrgUser, RoleCustomer}

func (r Role) Valid() bool {
	return slices.Contains(roles, r)
}

// Roles returns the recognized authorization roles.
func Roles() []Role {
	return slices.Clone(roles)
}

// Protocol identifies an agent interoperability protocol referenced by
// consolidated events through metadata["protocol"].
type Protocol string

var protocols = []Protocol{"a2a", "acp", "ap2", "x402", "ag-ui"}

func (p Protocol) Valid() bool {
	return slices.Contains(protocols, p)
}

// Protocols returns the recognized protocol identifiers.
func Protocols() []Protocol {
	return slices.Clone(protocols)
}

func toSet[T comparable](values []T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
