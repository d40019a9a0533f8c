/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package core provides the reactive data store behind bindings.
//
// The primary type is Store, and the primary method is SetProperty.
// A Store owns numbered binding contexts.  Each binding context holds
// an arbitrary nested data graph (maps, slices, scalars) and a
// dependency map from property paths to subscribers.  Context 0 is
// reserved for globals and always exists.
//
// A subscriber is either an element handle (an opaque string,
// usually a UUID) or a Callback.  When a property changes, the Store
// runs a cascade update: subscribers of exactly that path are
// notified; if there are none, every registered path that starts
// with the changed path gets the same treatment.  Handles are
// notified through a Dispatcher, which knows which providers bound
// which handle.  See the providers package.
//
// Slices assigned with SetProperty are wrapped in an Array.  Array
// mutations (Push, Pop, Shift, Unshift, Splice) notify subscribers
// with a Delta instead of a full property change.
//
// A Store is not safe for concurrent use.  Everything here is meant to
// run on one logical thread.  Subscribers may call back into the
// Store (and often do).  See SetProperty for what happens then.
package core
