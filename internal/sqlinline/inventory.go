package sqlinline

// QLockProducts locks the requested rows in ascending id order.
const QLockProducts = `--sql d24751dd-30c2-4ebd-a3e7-a1ee52f9b79a
select id, available, price::text
from products
where id = any($1::text[])
order by id
for update;
`

const QDecrementProduct = `--sql a5020597-77f9-4d11-a400-652ec5b70e95
update products
set available = available - $2::int, updated_at = now()
where id = $1::text and available >= $2::int
returning available;
`

const QProductAvailable = `--sql 682ece19-0868-4fd7-81c0-0036dfe165fb
select available from products where id = $1::text;
`
