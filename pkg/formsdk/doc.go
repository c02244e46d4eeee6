/*
Package formsdk provides a client SDK for the Backdesk directory
service's form action pipeline.

# Overview

Every mutation in the directory service is a form submission: fields go
up URL-encoded, and an ActionResult comes back carrying field errors, a
business warning, or a success message key. The SDK wraps that contract
three ways:

  - Client: a cookie-jar HTTP client with one typed method per action
    endpoint plus the read endpoints.
  - FormController: the client-side submission state machine (field
    values, pending flag, last result, sensitive-field clearing).
  - Decide: the pure navigation policy mapping an operation's result to
    a route change, sign-out, or an inline display.

# Usage

	client := formsdk.NewClient("https://directory.example.com")

	res, err := client.SignIn(ctx, url.Values{
		"email":    {"admin@example.com"},
		"password": {"hunter2hunter2"},
	})
	if err != nil {
		// transport failure; res is zero
	}
	if !res.OK() {
		// res.Errors or res.Warning explain why
	}

The session cookie set by sign-in rides along on subsequent calls
through the client's jar.

# Controller and policy

	ctrl := formsdk.NewFormController(formsdk.OpUpdateProfile, submit)
	ctrl.Set("name", "Avery")
	res, err := ctrl.Submit(ctx)

	nav := formsdk.Decide(formsdk.OpUpdateProfile, res, formsdk.RoleAdmin)
	// nav.Transient == "Saved", nav.Route == ""
*/
package formsdk
