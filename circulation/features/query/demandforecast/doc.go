// Package demandforecast implements the Demand Forecast query use case for librarians.
//
// It reads the loans borrowed within the forecast window and ranks all titles by the demand
// forecast.Forecast predicts for them.
package demandforecast
