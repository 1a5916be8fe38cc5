package cobalt

import (
	"fmt"
	"sync/atomic"
)

// Vault provides lock-free, hot-reloadable, hierarchical rule
// management. Readers always see a consistent, fully compiled tree;
// mutations build and compile a new tree before atomically swapping it
// in.
type Vault struct {
	root           atomic.Pointer[Rule]
	engine         Engine
	compileOptions []CompilationOption
}

// RuleMutation defines a single change to the rule tree.
type RuleMutation struct {
	// Required; globally unique ID of the rule being changed or added.
	ID string

	// Rule is the new rule that will replace an existing rule or be
	// added to the parent. If Rule is nil, the rule with ID is
	// deleted.
	Rule *Rule

	// Parent is optional for updates and deletes, required for adds.
	Parent string
}

// NewVault creates a Vault with an optional initial rule tree. Without
// an initial root, a default rule with ID "root" is created. The
// compile options are used for every mutation.
func NewVault(engine Engine, initialRoot *Rule, opts ...CompilationOption) (*Vault, error) {
	v := &Vault{
		engine:         engine,
		compileOptions: opts,
	}
	if initialRoot == nil {
		initialRoot = NewRule("root", "")
	}
	if err := v.engine.Compile(initialRoot, opts...); err != nil {
		return nil, fmt.Errorf("compiling initial root for the vault: %w", err)
	}
	v.root.Store(initialRoot)
	return v, nil
}

// CurrentRoot returns the current immutable root rule for inspection
// and evaluation. The returned tree must not be modified.
func (v *Vault) CurrentRoot() *Rule {
	return v.root.Load()
}

// ApplyMutations makes the changes to the rule tree stored in the
// Vault. All mutations succeed or fail together; on failure the
// current tree is unchanged.
func (v *Vault) ApplyMutations(mutations []RuleMutation) error {
	oldRoot := v.root.Load()
	newRoot := copyRule(oldRoot)
	for _, m := range mutations {
		if m.ID == "" {
			return fmt.Errorf("mutation missing rule ID")
		}
		switch m.Rule {
		case nil:
			if err := v.delete(newRoot, m); err != nil {
				return fmt.Errorf("deleting rule %s: %w", m.ID, err)
			}
		default:
			if err := v.upsert(newRoot, m); err != nil {
				return fmt.Errorf("upserting rule %s: %w", m.ID, err)
			}
		}
	}
	if err := v.engine.Compile(newRoot, v.compileOptions...); err != nil {
		return fmt.Errorf("compiling mutated tree: %w", err)
	}
	v.root.Store(newRoot)
	return nil
}

func (v *Vault) delete(root *Rule, m RuleMutation) error {
	parent := FindParent(root, m.ID)
	if parent == nil {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, m.ID)
	}
	parent.Delete(m.ID)
	return nil
}

func (v *Vault) upsert(root *Rule, m RuleMutation) error {
	if m.Rule.ID != m.ID {
		return fmt.Errorf("mutation ID %s does not match rule ID %s", m.ID, m.Rule.ID)
	}
	if existing := FindParent(root, m.ID); existing != nil {
		existing.Delete(m.ID)
		if m.Parent == "" {
			return existing.Add(m.Rule)
		}
	}
	if m.Parent == "" {
		return fmt.Errorf("adding rule %s: missing parent", m.ID)
	}
	parent := FindRule(root, m.Parent)
	if parent == nil {
		return fmt.Errorf("adding rule %s: parent %s: %w", m.ID, m.Parent, ErrRuleNotFound)
	}
	return parent.Add(m.Rule)
}
