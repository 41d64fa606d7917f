/*
Package attendsdk provides a client SDK for the EAS employee attendance service.

# Overview

The attendsdk package wraps every endpoint the attendance service exposes to its
clients: login and logout, check-in and check-out, an employee's own logs and
summaries, and the admin views over employees and daily attendance.

	client := attendsdk.NewSDKClient("https://eas.example.com/api")
	client.Credentials = attendsdk.StaticCredential(token)

	res := client.MarkIn(ctx)
	if !res.Success {
		fmt.Println(res.Error) // e.g. "Already checked in today"
	}

# Results

Calls never return a bare error for expected failures. Each one returns a
Result carrying either the decoded payload or a failure description:

  - Success and Data: the call succeeded and Data holds the payload.
  - Error and Kind: the call failed. Error is the server's own message when it
    sent one (the detail, message and error fields are checked in that order),
    the transport error when no response arrived, or "Request failed".

Result.Err converts a failure into a *Error for code that prefers the usual
error flow. Its Error() text is the message verbatim:

	user, err := client.CurrentUser(ctx).Value()
	if attendsdk.IsAuthorization(err) {
		// stored credential is no longer accepted
	}

# Envelopes

Servers may wrap payloads as {"success": true, "data": ..., "message": ...} or
send them bare. When the body is an object with a non-null data field that
field is decoded, otherwise the whole body is.

# Credentials

A CredentialSource supplies the bearer token for each request. When it yields
an empty string the request is sent without an Authorization header. The auth
controller in this module implements CredentialSource so every call picks up
the current session.

# Transport

NewSDKClient installs a slogx.Transport, which stamps an X-Request-ID header on
every request and logs the method, path, status and duration. Wrap it with
httpx.Throttle to cap the request rate. The SDK never retries.

# Thread Safety

SDKClient holds no mutable state of its own and is safe for concurrent use as
long as its CredentialSource is.
*/
package attendsdk
