// Package finance holds the domain rules of Prism: validation of candidate
// records against the acting user's data, derived statistics for budgets,
// goals and transactions, the category hierarchy, and goal completion.
//
// Nothing here talks to the database directly. Callers supply a Store (or a
// narrower collaborator) and the acting user's ID explicitly.
package finance
