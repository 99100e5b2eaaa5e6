// Package mongo is the MongoDB account.Store.
//
// Accounts live in one collection with a unique index on email. Field names
// follow the Natours users collection, so existing data can be read as-is.
package mongo
