package sqlinline

const QInsertOrder = `--sql 2bb2bb15-a87c-4d5c-9216-f728f62ae50d
insert into orders(id, product_id, buyer_id, quantity, unit_price, total_amount, shipping, payment_method, status, created_at)
values ($1::uuid, $2::text, $3::text, $4::int, $5::numeric, $6::numeric, coalesce($7::jsonb, '{}'::jsonb), $8::text, $9::text, now())
returning created_at;
`
