package sqlinline

const QLedgerStats = `--sql 221e0f8a-0bea-48ae-813d-47d54ce4638a
select
    (select count(*) from "User"),
    (select count(*) from "Campaign"),
    (select count(*) from "Donation"),
    (select coalesce(sum(amount), 0)::bigint from "Transaction" where type = 'DONATION' and status = 'COMPLETED'),
    (select coalesce(sum(amount), 0)::bigint from "Transaction" where type = 'PAYOUT' and status = 'COMPLETED'),
    (select count(*) from "Milestone" where status = 'PAID');
`
