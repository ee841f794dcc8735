package hierarchy

import (
	"github.com/fitelo/sales-dashboard/pkg/period"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
)

// Targets table columns (0-based; A=0).
const (
	colSMName         = 0  // A
	colSMService      = 2  // C
	colSMCommerce     = 4  // E
	colMgrName        = 6  // G
	colMgrService     = 7  // H
	colMgrReportingSM = 8  // I
	colMgrCommerce    = 10 // K
	colAMName         = 12 // M
	colAMService      = 13 // N
	colAMReportingMgr = 14 // O
	colAMReportingSM  = 15 // P
	colAMRole         = 17 // R
	colAMCommerce     = 19 // T
)

// Builder accumulates entities from the Targets table. It owns the id ->
// entity registry for one build; nothing is shared between builds.
type Builder struct {
	cal      period.Calendar
	resolver Resolver
	byID     map[string]*Entity
	sms      []*Entity
	managers []*Entity
	ams      []*Entity
}

// Option configures a Builder.
type Option func(*Builder)

// WithResolver replaces the default name-matching resolver.
func WithResolver(r Resolver) Option {
	return func(b *Builder) { b.resolver = r }
}

// NewBuilder returns a Builder that scales targets with cal.
func NewBuilder(cal period.Calendar, opts ...Option) *Builder {
	b := &Builder{
		cal:      cal,
		resolver: NewNameResolver(),
		byID:     map[string]*Entity{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// upsert returns the entity for (role, name), creating it on first sight.
// A later row never overrides name or targets; it only fills reporting links
// the first row left empty.
func (b *Builder) upsert(name string, role Role, t Targets, managerID, smID string) *Entity {
	id := ID(role, name)
	if e, ok := b.byID[id]; ok {
		if e.ManagerID == "" && role.IsLeaf() {
			e.ManagerID = managerID
		}
		if e.SMID == "" {
			e.SMID = smID
		}
		return e
	}

	e := &Entity{ID: id, Name: name, Role: role, SMID: smID, Targets: t}
	e.ScaledTargets = Figures{
		Service:  b.cal.Scale(t.Service),
		Commerce: b.cal.Scale(t.Commerce),
	}
	if role.IsLeaf() {
		e.ManagerID = managerID
	}
	b.byID[id] = e
	b.resolver.Register(e)

	switch role {
	case RoleSM:
		b.sms = append(b.sms, e)
	case RoleManager:
		b.managers = append(b.managers, e)
	default:
		b.ams = append(b.ams, e)
	}
	return e
}

// AddTargets runs the three level passes over the Targets rows. Each level
// only links to levels above it, so the passes must run in this order.
func (b *Builder) AddTargets(rows []sheets.Row) {
	b.addSMs(rows)
	b.addManagers(rows)
	b.addAMs(rows)
}

func (b *Builder) addSMs(rows []sheets.Row) {
	for _, row := range rows {
		name := row.Text(colSMName)
		if name == "" {
			continue
		}
		b.upsert(name, RoleSM, Targets{
			Service:  row.Number(colSMService),
			Commerce: row.Number(colSMCommerce),
		}, "", "")
	}
}

func (b *Builder) addManagers(rows []sheets.Row) {
	for _, row := range rows {
		name := row.Text(colMgrName)
		if name == "" {
			continue
		}
		smID, _ := b.resolver.Resolve(RoleSM, row.Text(colMgrReportingSM))
		b.upsert(name, RoleManager, Targets{
			Service:  row.Number(colMgrService),
			Commerce: row.Number(colMgrCommerce),
		}, "", smID)
	}
}

func (b *Builder) addAMs(rows []sheets.Row) {
	for _, row := range rows {
		name := row.Text(colAMName)
		if name == "" {
			continue
		}
		role := RoleAM
		if row.Text(colAMRole) == string(RoleFLAP) {
			role = RoleFLAP
		}
		managerID, _ := b.resolver.Resolve(RoleManager, row.Text(colAMReportingMgr))
		smID, _ := b.resolver.Resolve(RoleSM, row.Text(colAMReportingSM))
		b.upsert(name, role, Targets{
			Service:  row.Number(colAMService),
			Commerce: row.Number(colAMCommerce),
		}, managerID, smID)
	}
}

// ApplyRevenue sets every entity's achieved figures from book. Entities
// without a bucket end up with zeros.
func (b *Builder) ApplyRevenue(book RevenueBook) {
	for _, e := range b.byID {
		e.Achieved = book[e.ID]
	}
}

// Entity returns the registered entity with id.
func (b *Builder) Entity(id string) (*Entity, bool) {
	e, ok := b.byID[id]
	return e, ok
}

// Build assembles the tree from everything added so far.
func (b *Builder) Build() *Result {
	return &Result{
		SMs:      b.sms,
		Managers: b.managers,
		AMs:      b.ams,
		Tree:     assemble(b.sms, b.managers, b.ams),
	}
}

// Build runs the whole pipeline for one request: targets, revenue, tree.
func Build(cal period.Calendar, targets, revenue []sheets.Row, opts ...Option) *Result {
	b := NewBuilder(cal, opts...)
	b.AddTargets(targets)
	b.ApplyRevenue(ScanRevenue(revenue))
	return b.Build()
}
