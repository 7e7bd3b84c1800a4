package onboarding

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
)

var (
	// ErrFirstStep is returned by Back on the first step.
	ErrFirstStep = errors.New("already on the first step")
	// ErrFinalStep is returned by Next on the last step; use Commit instead.
	ErrFinalStep = errors.New("already on the final step")
	// ErrNotFinalStep is returned by Commit before the last step is reached.
	ErrNotFinalStep = errors.New("commit is only allowed from the final step")
	// ErrCommitInProgress is returned while a commit is outstanding.
	ErrCommitInProgress = errors.New("commit already in progress")
	// ErrWizardClosed is returned by every operation after a successful commit.
	ErrWizardClosed = errors.New("onboarding already completed")
	// ErrDraftNotCleared is wrapped into the commit result when the profile was
	// written but the draft slot could not be cleared. The commit itself succeeded.
	ErrDraftNotCleared = errors.New("profile committed but draft was not cleared")
)

// DraftWriter persists the wizard's form between transitions.
type DraftWriter interface {
	Save(ctx context.Context, sessionID string, d Draft) error
	Clear(ctx context.Context, sessionID string) error
}

// ProfileUpdater applies a committed patch to the durable profile.
type ProfileUpdater interface {
	Update(ctx context.Context, userID string, patch profile.Patch) error
}

// Deps groups the wizard's collaborators.
type Deps struct {
	Drafts   DraftWriter
	Profiles ProfileUpdater
	Catalog  *Catalog
}

// Owner identifies whose onboarding this is: the session keys the draft slot,
// the user keys the profile.
type Owner struct {
	SessionID string
	UserID    string
}

// Wizard is the step-sequenced onboarding controller. It is not safe for
// concurrent use; one instance serves one request for one session.
type Wizard struct {
	deps       Deps
	owner      Owner
	index      int
	values     Draft
	submitting bool
	terminal   bool
}

// New builds a wizard positioned at the draft's step. Drafts with an unknown
// step start over at the first step with their values kept.
func New(deps Deps, owner Owner, d Draft) *Wizard {
	if deps.Catalog == nil {
		deps.Catalog = DefaultCatalog()
	}
	d = d.Clone()
	idx := d.Step.Index()
	if idx < 0 {
		idx = 0
	}
	d.Step = steps[idx]
	if d.Availability == "" {
		d.Availability = profile.DefaultAvailability
	}
	return &Wizard{deps: deps, owner: owner, index: idx, values: d}
}

// Step returns the current step.
func (w *Wizard) Step() Step { return steps[w.index] }

// StepIndex returns the zero-based position of the current step.
func (w *Wizard) StepIndex() int { return w.index }

// Values returns a copy of the current form values.
func (w *Wizard) Values() Draft { return w.values.Clone() }

// Submitting reports whether a commit is outstanding.
func (w *Wizard) Submitting() bool { return w.submitting }

// Terminal reports whether the wizard has committed successfully.
func (w *Wizard) Terminal() bool { return w.terminal }

// IsFinal reports whether the current step is the last one.
func (w *Wizard) IsFinal() bool { return w.index == len(steps)-1 }

// Catalog returns the catalog the wizard validates against.
func (w *Wizard) Catalog() *Catalog { return w.deps.Catalog }

// RequiresVehicle reports whether the selected category needs a vehicle.
func (w *Wizard) RequiresVehicle() bool { return w.deps.Catalog.RequiresVehicle(w.values.Category) }

func (w *Wizard) checkOpen() error {
	if w.terminal {
		return ErrWizardClosed
	}
	if w.submitting {
		return ErrCommitInProgress
	}
	return nil
}

// Validate runs the current step's validator without changing state.
func (w *Wizard) Validate() error {
	return ValidateStep(w.Step(), w.values, w.deps.Catalog)
}

// Next validates the current step, persists the form positioned on the
// following step, and advances. On any failure the wizard is unchanged.
func (w *Wizard) Next(ctx context.Context) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.IsFinal() {
		return ErrFinalStep
	}
	if err := w.Validate(); err != nil {
		return err
	}
	next := w.values.Clone()
	next.Step = steps[w.index+1]
	if err := w.deps.Drafts.Save(ctx, w.owner.SessionID, next); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	w.index++
	w.values = next
	return nil
}

// Back returns to the previous step without validating. The draft is saved so
// a reload resumes where the user is looking.
func (w *Wizard) Back(ctx context.Context) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.index == 0 {
		return ErrFirstStep
	}
	prev := w.values.Clone()
	prev.Step = steps[w.index-1]
	if err := w.deps.Drafts.Save(ctx, w.owner.SessionID, prev); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	w.index--
	w.values = prev
	return nil
}

// Save persists the current form values at the current step.
func (w *Wizard) Save(ctx context.Context) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if err := w.deps.Drafts.Save(ctx, w.owner.SessionID, w.values.Clone()); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// BuildPatch validates every step and returns the normalized profile patch.
func (w *Wizard) BuildPatch() (profile.Patch, error) {
	for _, s := range steps {
		if err := ValidateStep(s, w.values, w.deps.Catalog); err != nil {
			return profile.Patch{}, err
		}
	}
	name := strings.TrimSpace(w.values.Name)
	if name == "" {
		return profile.Patch{}, stepErr(StepAvailability, "name", "is required and cannot be empty")
	}

	wages := w.values.Wages.Retain(w.values.Subcategories)
	summary, err := profile.Aggregate(wages)
	if err != nil {
		return profile.Patch{}, stepErr(StepWage, "wages", err.Error())
	}
	rng := summary.Range()

	details := profile.JobseekerDetails{
		Categories:        []string{w.values.Category},
		Subcategories:     slices.Clone(w.values.Subcategories),
		Wages:             wages,
		SalaryExpectation: &rng,
		SalaryPeriod:      summary.Period,
	}
	if w.RequiresVehicle() {
		details.Vehicle = strings.TrimSpace(w.values.Vehicle)
	}

	availability := w.values.Availability
	if availability == "" {
		availability = profile.DefaultAvailability
	}

	return profile.Patch{
		Name:            name,
		Availability:    availability,
		Details:         details,
		ProfileComplete: true,
	}, nil
}

// Commit writes the profile patch and clears the draft. It is only allowed on
// the final step and is not reentrant. On failure the step and form values
// are left untouched and the draft is kept so the user can retry.
func (w *Wizard) Commit(ctx context.Context) (profile.Patch, error) {
	if err := w.checkOpen(); err != nil {
		return profile.Patch{}, err
	}
	if !w.IsFinal() {
		return profile.Patch{}, ErrNotFinalStep
	}

	w.submitting = true
	defer func() { w.submitting = false }()

	patch, err := w.BuildPatch()
	if err != nil {
		return profile.Patch{}, err
	}
	if err := w.deps.Profiles.Update(ctx, w.owner.UserID, patch); err != nil {
		return profile.Patch{}, fmt.Errorf("update profile: %w", err)
	}

	w.terminal = true
	if err := w.deps.Drafts.Clear(ctx, w.owner.SessionID); err != nil {
		return patch, errors.Join(ErrDraftNotCleared, err)
	}
	return patch, nil
}

// SetCategory selects a category. Subcategories, wages and a vehicle that do
// not belong to the new category are dropped.
func (w *Wizard) SetCategory(id string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == w.values.Category {
		return nil
	}
	w.values.Category = id
	cat, ok := w.deps.Catalog.Category(id)
	kept := w.values.Subcategories[:0:0]
	if ok {
		for _, s := range w.values.Subcategories {
			if cat.HasSubcategory(s) {
				kept = append(kept, s)
			}
		}
	}
	w.values.Subcategories = kept
	w.values.Wages = w.values.Wages.Retain(kept)
	if !ok || !cat.RequiresVehicle {
		w.values.Vehicle = ""
	}
	return nil
}

// SetSubcategories replaces the selection. Wage entries for deselected
// subcategories are kept in the draft and filtered out at commit.
func (w *Wizard) SetSubcategories(subs []string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	w.values.Subcategories = normalizeSubcategories(subs)
	return nil
}

// SetVehicle records the vehicle type.
func (w *Wizard) SetVehicle(v string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	w.values.Vehicle = strings.TrimSpace(v)
	return nil
}

// SetWage records the wage for one subcategory, keeping its insertion position.
func (w *Wizard) SetWage(subcategory string, e profile.WageEntry) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	subcategory = strings.TrimSpace(subcategory)
	if subcategory == "" {
		return stepErr(StepWage, "wages", "subcategory is required")
	}
	w.values.Wages = w.values.Wages.Clone()
	w.values.Wages.Set(subcategory, e)
	return nil
}

// SetAvailability records the work status.
func (w *Wizard) SetAvailability(a profile.Availability) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if !a.Valid() {
		return stepErr(StepAvailability, "availability", "must be one of: available, busy, offline")
	}
	w.values.Availability = a
	return nil
}

// SetName records the display name.
func (w *Wizard) SetName(name string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	w.values.Name = name
	return nil
}

// Edit is a partial form update; nil fields are left unchanged.
type Edit struct {
	Category      *string               `json:"category,omitempty"`
	Subcategories []string              `json:"subcategories,omitempty"`
	Vehicle       *string               `json:"vehicle,omitempty"`
	Wages         *profile.WageBook     `json:"wages,omitempty"`
	Availability  *profile.Availability `json:"availability,omitempty"`
	Name          *string               `json:"name,omitempty"`
}

// Apply runs the setters for every field present in e. It stops at the first
// error; earlier fields stay applied.
func (w *Wizard) Apply(e Edit) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if e.Category != nil {
		if err := w.SetCategory(*e.Category); err != nil {
			return err
		}
	}
	if e.Subcategories != nil {
		if err := w.SetSubcategories(e.Subcategories); err != nil {
			return err
		}
	}
	if e.Vehicle != nil {
		if err := w.SetVehicle(*e.Vehicle); err != nil {
			return err
		}
	}
	if e.Wages != nil {
		for sub, entry := range e.Wages.All() {
			if err := w.SetWage(sub, entry); err != nil {
				return err
			}
		}
	}
	if e.Availability != nil {
		if err := w.SetAvailability(*e.Availability); err != nil {
			return err
		}
	}
	if e.Name != nil {
		return w.SetName(*e.Name)
	}
	return nil
}
