package sqlinline

const QInsertTransaction = `--sql 20080d65-5293-4c85-889a-c85632ff3bf7
insert into "Transaction" (type, amount, status, "userId", "campaignId", "milestoneId")
values ($1::text::"TransactionType", $2::bigint, $3::text::"TransactionStatus", $4::bigint, $5::bigint, $6::bigint)
returning id, timestamp;
`

const QUpdateTransactionStatus = `--sql d22a6c72-9fa4-4183-a77f-70b29c885791
update "Transaction"
set status = $2::text::"TransactionStatus"
where id = $1::bigint and status = 'PENDING';
`

const QListTransactionsByCampaign = `--sql a3c3659f-bc0f-42dd-bcce-512431167ad7
select id, type::text, amount, status::text, timestamp, "userId", "campaignId", "milestoneId"
from "Transaction"
where "campaignId" = $1::bigint
order by id asc;
`

const QSumTransactions = `--sql 6fa5731a-7b84-4ec0-b4f9-3fdf66bab431
select coalesce(sum(amount), 0)::bigint
from "Transaction"
where "campaignId" = $1::bigint
  and type = $2::text::"TransactionType"
  and status = $3::text::"TransactionStatus";
`

const QCountCompletedPayouts = `--sql 5c57176a-02d6-4476-ba9c-4227c8885eb0
select count(*)
from "Transaction"
where "milestoneId" = $1::bigint and type = 'PAYOUT' and status = 'COMPLETED';
`
