package domain

// KeyPrefix namespaces every lanefuse key in the store.
const KeyPrefix = "lf:"
