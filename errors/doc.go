/*
Package errors implements custom error interfaces for the referral protocol.

The idea is to reuse as many errors from this package as possible and define
custom package errors only when absolutely necessary. All root errors that
describe a failed protocol operation (unauthorized caller, approval gate,
self referral, redundant transitions) are declared here so that every
component reports them the same way.

If you want to register a custom error - use Register(code, description).
To create an error instance wrap one of the root errors - use Wrap or Wrapf.
Code stands for an error code, which allows to distinguish types of errors
on the client side and act accordingly.

There is also support for stacktraces. Please ensure you create the custom
error using errors.Wrap(ErrXyz, "...") at the point of creation to ensure we
attach a stacktrace. If you wrap multiple times, we only record the first
wrap with the stacktrace.
(And don't do this as a global `var ErrFoo = errors.Wrap(ErrInput, "foo")` or
you will get a useless stacktrace).

Once you have an error, you can use `fmt.Printf/Sprintf` to get more context
for the error

	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
