/*
Package project implements the project component.

A project accepts referral events once it is approved by its registry. For
each event it divides the reward, pays every party from the caller account
and records the referrer on the subject referral node. The node is updated
only after all payments succeeded.
*/
package project
