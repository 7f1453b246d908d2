// Package exchange provides live exchange rate providers backed by
// public JSON APIs.
//
// # Providers
//
// ## exchangerate.host (primary)
//
// Source: "exchangerate.host"
// URL: https://api.exchangerate.host/latest?base=RUB&symbols=USD,CNY,IRR
//
// Response carries an explicit success flag and a rates object keyed by
// currency code. A response with success == false is treated as a failure.
//
// ## exchangerate-api (secondary)
//
// Source: "exchangerate-api"
// URL: https://api.exchangerate-api.com/v4/latest/RUB
//
// Response carries a rates object keyed by currency code, with no success flag.
//
// Both providers report rates as "1 base unit = X currency units", and only
// return the supported currencies present in the response. Inverting and
// filling in missing currencies is left to the caller.
package exchange
