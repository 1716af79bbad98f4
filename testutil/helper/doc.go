// Package helper provides test doubles and fixtures shared by the circulation test suites.
package helper
