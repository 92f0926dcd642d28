// Package domain defines the persistence models and the application error
// taxonomy of the to-do backend. These types are shared across the
// repository, service, and HTTP layers.
package domain

// Todo is a single to-do item owned by the document store.
//
// Fields:
//   - ID: caller-supplied identifier, stored as the document _id so that
//     id-keyed reads, updates and deletes address the inserted document.
//   - Title: short human-readable summary.
//   - Description: free-form detail text.
//
// The application never caches a Todo; every operation re-queries the store.
type Todo struct {
	ID          string `json:"id"          bson:"_id"`
	Title       string `json:"title"       bson:"title"`
	Description string `json:"description" bson:"description"`
}

// TodoPatch carries the fields of a merge-patch update. Only the fields
// present in the patch are written; other stored fields are left untouched.
type TodoPatch struct {
	Title       string `json:"title"       bson:"title"`
	Description string `json:"description" bson:"description"`
}

const (
	// TodoDatabase is the logical database holding to-do documents.
	TodoDatabase = "todo"
	// TodoCollection is the collection holding to-do documents.
	TodoCollection = "todos"
)
