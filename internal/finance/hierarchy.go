package finance

import (
	"errors"
	"iter"

	apperrors "prism/internal/errors"
	"prism/internal/models"
)

// FullName returns "Parent > Name" when c has a loaded parent, else its name.
func FullName(c *models.Category) string {
	if c.Parent != nil {
		return c.Parent.Name + " > " + c.Name
	}
	return c.Name
}

// Ancestors walks parent links from c up to the root, yielding each ancestor
// once. A repeated ID ends the walk with ErrCircularHierarchy so corrupted
// data cannot loop forever.
func Ancestors(finder CategoryFinder, c *models.Category) iter.Seq2[*models.Category, error] {
	return func(yield func(*models.Category, error) bool) {
		seen := map[string]bool{c.ID: true}
		next := c.ParentID
		for next != nil {
			if seen[*next] {
				yield(nil, apperrors.ErrCircularHierarchy)
				return
			}
			seen[*next] = true

			parent, err := finder.FindCategory(*next)
			if err != nil {
				yield(nil, err)
				return
			}
			if parent == nil {
				return
			}
			if !yield(parent, nil) {
				return
			}
			next = parent.ParentID
		}
	}
}

// CheckNoCycle rejects making parentID the parent of categoryID when
// categoryID is parentID itself or one of its ancestors. categoryID is empty
// for a category that does not exist yet, which can never close a cycle.
func CheckNoCycle(finder CategoryFinder, categoryID string, parentID *string) error {
	if categoryID == "" || parentID == nil {
		return nil
	}
	if *parentID == categoryID {
		return apperrors.WithMessage(apperrors.ErrCircularHierarchy, "Category cannot be its own parent")
	}

	parent, err := finder.FindCategory(*parentID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if parent == nil {
		return nil
	}
	for ancestor, err := range Ancestors(finder, parent) {
		if err != nil {
			if errors.Is(err, apperrors.ErrCircularHierarchy) {
				return err
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if ancestor.ID == categoryID {
			return apperrors.ErrCircularHierarchy
		}
	}
	return nil
}

// ChildLister returns the active direct children of a category.
type ChildLister interface {
	ActiveChildren(parentID string) ([]models.Category, error)
}

// Subtree yields the active descendants of root depth-first, parents before
// children. Each call starts a fresh walk; nothing is cached between calls.
func Subtree(lister ChildLister, root *models.Category) iter.Seq2[*models.Category, error] {
	return func(yield func(*models.Category, error) bool) {
		seen := map[string]bool{root.ID: true}
		var walk func(parent *models.Category) bool
		walk = func(parent *models.Category) bool {
			children, err := lister.ActiveChildren(parent.ID)
			if err != nil {
				yield(nil, err)
				return false
			}
			for i := range children {
				child := &children[i]
				if seen[child.ID] {
					continue
				}
				seen[child.ID] = true
				child.Parent = parent
				if !yield(child, nil) || !walk(child) {
					return false
				}
			}
			return true
		}
		walk(root)
	}
}

// CategoryNode is one entry of the nested category listing.
type CategoryNode struct {
	models.Category
	FullName      string          `json:"full_name"`
	Subcategories []*CategoryNode `json:"subcategories"`
}

// BuildTree nests the active descendants of each root beneath it, walking
// the hierarchy through lister. Sibling order follows lister.
func BuildTree(roots []models.Category, lister ChildLister) ([]*CategoryNode, error) {
	tree := make([]*CategoryNode, 0, len(roots))
	for i := range roots {
		root := &roots[i]
		rootNode := newNode(root)
		nodes := map[string]*CategoryNode{root.ID: rootNode}

		for child, err := range Subtree(lister, root) {
			if err != nil {
				return nil, err
			}
			node := newNode(child)
			nodes[child.ID] = node
			parent := nodes[*child.ParentID]
			parent.Subcategories = append(parent.Subcategories, node)
		}
		tree = append(tree, rootNode)
	}
	return tree, nil
}

func newNode(c *models.Category) *CategoryNode {
	return &CategoryNode{Category: *c, FullName: FullName(c), Subcategories: []*CategoryNode{}}
}
