package db

import (
	"go.mongodb.org/mongo-driver/bson"
)

// FilterBuilder helps build MongoDB filters fluently
type FilterBuilder struct {
	filter bson.M
}

// NewFilter creates a new FilterBuilder
func NewFilter() *FilterBuilder {
	return &FilterBuilder{filter: bson.M{}}
}

// Eq adds an equality condition
func (f *FilterBuilder) Eq(field string, value interface{}) *FilterBuilder {
	f.filter[field] = value
	return f
}

// Ne adds a not-equal condition
func (f *FilterBuilder) Ne(field string, value interface{}) *FilterBuilder {
	f.filter[field] = bson.M{"$ne": value}
	return f
}

// In adds an $in condition (value in array)
func (f *FilterBuilder) In(field string, values interface{}) *FilterBuilder {
	f.filter[field] = bson.M{"$in": values}
	return f
}

// Contains adds a case-insensitive contains search
func (f *FilterBuilder) Contains(field string, value string) *FilterBuilder {
	f.filter[field] = bson.M{"$regex": value, "$options": "i"}
	return f
}

// Exists checks if field exists
func (f *FilterBuilder) Exists(field string, exists bool) *FilterBuilder {
	f.filter[field] = bson.M{"$exists": exists}
	return f
}

// Or combines multiple filters with OR
func (f *FilterBuilder) Or(filters ...bson.M) *FilterBuilder {
	if len(filters) > 0 {
		f.filter["$or"] = filters
	}
	return f
}

// Build returns the final bson.M filter
func (f *FilterBuilder) Build() bson.M {
	return f.filter
}

// Empty returns an empty filter (matches all documents)
func Empty() bson.M {
	return bson.M{}
}
