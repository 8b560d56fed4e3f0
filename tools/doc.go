// Package tools defines the contract of the functions an agent exposes to
// the model: the declaration sent to the model, the invocation with the
// arguments chosen by the model, and the map of bound tools.
package tools
