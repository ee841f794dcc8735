package hierarchy

import (
	"strings"

	"github.com/fitelo/sales-dashboard/pkg/period"
)

// Role is the hierarchy level of an entity.
type Role string

const (
	RoleSM      Role = "SM"
	RoleManager Role = "M"
	RoleAM      Role = "AM"
	RoleFLAP    Role = "FLAP"
)

// IsLeaf reports whether r is a front-line role (AM or FLAP).
func (r Role) IsLeaf() bool {
	return r == RoleAM || r == RoleFLAP
}

// Category is a revenue line.
type Category string

const (
	Service  Category = "service"
	Commerce Category = "commerce"
)

// ID derives the dedup key for (role, name): lower-cased, whitespace runs
// collapsed to a single hyphen. Callers pass trimmed names.
func ID(role Role, name string) string {
	return strings.ToLower(string(role)) + "-" + strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// Targets are the raw monthly targets.
type Targets struct {
	Service  float64 `json:"service"`
	Commerce float64 `json:"commerce"`
}

// Get returns the monthly target for c.
func (t Targets) Get(c Category) float64 {
	if c == Commerce {
		return t.Commerce
	}
	return t.Service
}

// Figures holds per-period values for both categories.
type Figures struct {
	Service  period.Scaled `json:"service"`
	Commerce period.Scaled `json:"commerce"`
}

// Get returns the per-period values for c.
func (f Figures) Get(c Category) period.Scaled {
	if c == Commerce {
		return f.Commerce
	}
	return f.Service
}

// Add returns the element-wise sum of f and o.
func (f Figures) Add(o Figures) Figures {
	return Figures{Service: f.Service.Add(o.Service), Commerce: f.Commerce.Add(o.Commerce)}
}

// Entity is one person in the org tree.
type Entity struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Role          Role    `json:"role"`
	ManagerID     string  `json:"managerId,omitempty"`
	SMID          string  `json:"smId,omitempty"`
	Targets       Targets `json:"targets"`
	ScaledTargets Figures `json:"scaledTargets"`
	Achieved      Figures `json:"achieved"`
}

// Target returns the target used for c in period p: the scaled target, or
// the raw monthly figure when the scaled one is zero.
func (e *Entity) Target(c Category, p period.Period) float64 {
	if t := e.ScaledTargets.Get(c).Get(p); t != 0 {
		return t
	}
	return e.Targets.Get(c)
}

// Ratio returns achieved/target*100 for c in p, unrounded. A zero target
// yields 0.
func (e *Entity) Ratio(c Category, p period.Period) float64 {
	t := e.Target(c, p)
	if t == 0 {
		return 0
	}
	return e.Achieved.Get(c).Get(p) / t * 100
}
