// Package schema loads declarative form definitions from YAML or JSON and
// applies them to a form.Form.
//
//	locale: en
//	debounce: 300
//	endpoints:
//	  unique:
//	    url: https://api.example.com/unique/{value}
//	fields:
//	  email:
//	    label: E-mail
//	    rules: [required, email, "unique:users,email"]
//	  state:
//	    when: [country, US]
//	    rules: [required]
//	lists:
//	  rows:
//	    sku:
//	      rules: [required, distinct]
//
// Debounce values are milliseconds. Rules and conditions use the same
// grammar as validator.Factory.Build and condition.Compile.
package schema
