// Package hclconfig is the HCL implementation of config.Loader. It decodes a
// run configuration such as
//
//	script       = "scripts/bank.talk"
//	error_policy = "report"
//	variables = {
//	  balance = 100
//	}
//	server {
//	  address = ":3000"
//	}
//
// into a config.Model.
package hclconfig
