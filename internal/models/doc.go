// Package models defines the core domain models for Settleup.
//
// The central model is Balance: a directed debt record between two users
// within a scope (a group, or the global no-group context). Balances are
// kept in canonical direction: for any pair of users and scope, at most
// one direction exists and its amount is strictly positive. Expenses and
// settlements are the events that move balances; groups define scopes and
// membership.
//
// All money is represented as shopspring decimals with two-digit currency
// precision. Amounts are never stored as floats.
package models
