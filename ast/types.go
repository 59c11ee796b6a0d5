// SPDX-License-Identifier: GPL-3.0-or-later

package ast

// SourceLocation pinpoints an AST node in the original protocol text, for
// diagnostics. The parser front-end populates this; nothing in this module
// requires it to be present.
type SourceLocation struct {
	File   string
	Line   int
	Column int
	Offset int
}

// Role names a participant in a protocol.
type Role string

// TypeParam is a type or signature parameter of a global protocol
// declaration, e.g. `role C` or `sig Foo(int)`.
type TypeParam struct {
	Name string
	Kind string // "role", "sig", or a payload-type kind understood by the parser
}

// RoleDecl declares a role in a protocol's parameter list.
type RoleDecl struct {
	Name    Role
	Dynamic bool // true for DMst dynamic-role declarations (§9.3)
	Loc     *SourceLocation
}

// PayloadType is an opaque payload type annotation; this module never
// inspects or refines payload values (spec.md §1 Non-goals).
type PayloadType struct {
	Name string
}

// Message is the `label, optional payload type` pair carried by a
// MessageTransfer or a Do/ProtocolCall's implicit signature.
type Message struct {
	Label   string
	Payload *PayloadType // nil if the message carries no payload
}

// Module is an ordered collection of declarations; only
// GlobalProtocolDeclaration is relevant to this toolchain (§4.1: "Local
// protocol declarations, imports and type declarations are ignored").
type Module struct {
	Protocols []*GlobalProtocolDeclaration
}

// GlobalProtocolDeclaration is a named, parameterized choreography.
type GlobalProtocolDeclaration struct {
	Name       string
	Params     []TypeParam
	Roles      []RoleDecl
	Body       []Interaction
	Loc        *SourceLocation
}

// RoleNames returns the declared role names in declaration order.
func (g *GlobalProtocolDeclaration) RoleNames() []Role {
	out := make([]Role, len(g.Roles))
	for i, r := range g.Roles {
		out[i] = r.Name
	}
	return out
}

// Interaction is the tagged union of global-protocol body constructs.
// Every implementation also implements [location], used by diagnostics;
// exhaustive type switches over Interaction are the idiom used by every
// consumer in this module (cfg.Build, registry.Registry) so that adding a
// new construct forces every switch site to be revisited.
type Interaction interface {
	isInteraction()
	location() *SourceLocation
}

// MessageTransfer is `from: Role, to: Role | Role[], message: {label, payload?}`.
type MessageTransfer struct {
	From    Role
	To      []Role // length 1 for unicast, >1 for multicast
	Message Message
	Loc     *SourceLocation
}

func (*MessageTransfer) isInteraction()            {}
func (m *MessageTransfer) location() *SourceLocation { return m.Loc }

// Branch is one labelled alternative of a [Choice].
type Branch struct {
	Label string // "" means the builder assigns "branchN"
	Body  []Interaction
}

// Choice is `at: Role, branches: [...]`.
type Choice struct {
	At       Role
	Branches []Branch
	Loc      *SourceLocation
}

func (*Choice) isInteraction()              {}
func (c *Choice) location() *SourceLocation { return c.Loc }

// Parallel is `branches: [...]`, each executing concurrently.
type Parallel struct {
	Branches [][]Interaction
	Loc      *SourceLocation
}

func (*Parallel) isInteraction()              {}
func (p *Parallel) location() *SourceLocation { return p.Loc }

// Recursion is `rec Label { body }`.
type Recursion struct {
	Label string
	Body  []Interaction
	Loc   *SourceLocation
}

func (*Recursion) isInteraction()              {}
func (r *Recursion) location() *SourceLocation { return r.Loc }

// Continue is `continue Label`.
type Continue struct {
	Label string
	Loc   *SourceLocation
}

func (*Continue) isInteraction()              {}
func (c *Continue) location() *SourceLocation { return c.Loc }

// Do is a static sub-protocol invocation: `protocol RoleArgs...`.
type Do struct {
	Protocol  string
	RoleArgs  []Role
	Loc       *SourceLocation
}

func (*Do) isInteraction()              {}
func (d *Do) location() *SourceLocation { return d.Loc }

// DynamicRoleDecl introduces a role at runtime (DMst `new role R`).
// Treated as an opaque action by the rest of this module (SPEC_FULL.md §4,
// Open Question 3): it never alters projection/safety semantics.
type DynamicRoleDecl struct {
	Role Role
	Loc  *SourceLocation
}

func (*DynamicRoleDecl) isInteraction()              {}
func (d *DynamicRoleDecl) location() *SourceLocation { return d.Loc }

// CreateParticipants is DMst `creates Roles...`.
type CreateParticipants struct {
	Creator  Role
	Roles    []Role
	Loc      *SourceLocation
}

func (*CreateParticipants) isInteraction()              {}
func (c *CreateParticipants) location() *SourceLocation { return c.Loc }

// Invitation is DMst `invites Role to Protocol`.
type Invitation struct {
	From     Role
	To       Role
	Protocol string
	Loc      *SourceLocation
}

func (*Invitation) isInteraction()              {}
func (i *Invitation) location() *SourceLocation { return i.Loc }

// UpdatableRecursion is DMst `continue Label with { body }`: a continue that
// also splices additional interactions before looping.
type UpdatableRecursion struct {
	Label string
	With  []Interaction
	Loc   *SourceLocation
}

func (*UpdatableRecursion) isInteraction()              {}
func (u *UpdatableRecursion) location() *SourceLocation { return u.Loc }

// Location returns the source location of any Interaction, or nil.
func Location(i Interaction) *SourceLocation {
	return i.location()
}
