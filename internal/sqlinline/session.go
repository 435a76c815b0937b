package sqlinline

// QSetLockTimeout bounds row-lock waits for the current transaction only.
const QSetLockTimeout = `--sql a1488b4d-a07e-4b6b-9057-9928d1b346eb
select set_config('lock_timeout', $1::text, true);
`
