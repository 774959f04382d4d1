// Package utils provides common helpers shared by the listing-sync packages:
// slug generation, optional value formatting and string matching.
package utils
